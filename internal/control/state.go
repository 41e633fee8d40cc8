package control

// Gesture is a discrete hand pose label.
type Gesture string

const (
	// GestureOpen is a fully opened palm. Gates yaw updates.
	GestureOpen Gesture = "open"
	// GestureClosed is a fist.
	GestureClosed Gesture = "closed"
	// GesturePointing is an extended index finger only. Gates pitch updates.
	GesturePointing Gesture = "pointing"
	// GestureVictory is index and middle extended, ring and pinky curled.
	GestureVictory Gesture = "victory"
	// GestureNeutral is any pose matching no other label, and is forced
	// whenever no hand is detected.
	GestureNeutral Gesture = "neutral"
)

// NeutralOpenness is the openness published while no hand is detected.
const NeutralOpenness = 0.5

// ControlState is the consolidated output published once per processed
// frame. See the package documentation for the field semantics consumers
// rely on.
type ControlState struct {
	HandDetected bool    `json:"handDetected"`
	Gesture      Gesture `json:"gesture"`
	Yaw          float64 `json:"yaw"`
	Pitch        float64 `json:"pitch"`
	Openness     float64 `json:"openness"`
	TimestampMs  int64   `json:"timestampMs"`
}
