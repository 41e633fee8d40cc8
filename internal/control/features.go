package control

import (
	"github.com/ayusman/mudra/internal/detector"
)

// Tunables holds the empirically tuned constants of the mapping pipeline.
// None of these are derived values; they vary with camera, lighting and
// hand shape, so they are configurable rather than hardcoded.
type Tunables struct {
	// ExtensionRatio is the multiplier k in the finger extension test:
	// a finger counts as extended when dist(tip, wrist) exceeds
	// k * dist(MCP, wrist). Lower k triggers easier. Applied uniformly
	// to all five fingers.
	ExtensionRatio float64 `json:"extensionRatio" mapstructure:"extension_ratio"`

	// OpenThreshold and ClosedThreshold are the normalized openness
	// cutoffs for the OPEN and CLOSED labels.
	OpenThreshold   float64 `json:"openThreshold" mapstructure:"open_threshold"`
	ClosedThreshold float64 `json:"closedThreshold" mapstructure:"closed_threshold"`

	// OpennessRawMin and OpennessRawMax calibrate the raw fingertip
	// distance ratio: raw values at or below Min map to openness 0 (fist),
	// at or above Max to 1 (splayed palm).
	OpennessRawMin float64 `json:"opennessRawMin" mapstructure:"openness_raw_min"`
	OpennessRawMax float64 `json:"opennessRawMax" mapstructure:"openness_raw_max"`

	// Smoothing is the exponential smoothing factor applied when a gated
	// yaw/pitch update is active: 1.0 jumps straight to the mapped target,
	// smaller values ease toward it.
	Smoothing float64 `json:"smoothing" mapstructure:"smoothing"`
}

// DefaultTunables returns the tuning set the defaults ship with.
func DefaultTunables() Tunables {
	return Tunables{
		ExtensionRatio:  1.15,
		OpenThreshold:   0.8,
		ClosedThreshold: 0.2,
		OpennessRawMin:  0.8,
		OpennessRawMax:  2.2,
		Smoothing:       0.35,
	}
}

// FeatureVector is the per-frame derived record the classifier and smoother
// consume. It is a pure function of one landmark set and holds no identity
// across frames.
type FeatureVector struct {
	ThumbExtended  bool
	IndexExtended  bool
	MiddleExtended bool
	RingExtended   bool
	PinkyExtended  bool

	// Openness is normalized to [0,1] and invariant to the hand's
	// distance from the camera.
	Openness float64

	// Raw coordinates needed by the rotation mapping.
	WristX    float64
	WristY    float64
	IndexTipX float64
	IndexTipY float64
}

// Finger tip/MCP index pairs, thumb first.
var fingerJoints = [5][2]int{
	{detector.ThumbTip, detector.ThumbMCP},
	{detector.IndexTip, detector.IndexMCP},
	{detector.MiddleTip, detector.MiddleMCP},
	{detector.RingTip, detector.RingMCP},
	{detector.PinkyTip, detector.PinkyMCP},
}

// ExtractFeatures derives the feature vector from a landmark set. It is a
// pure, total function: any well-formed 21-point set yields a result.
func ExtractFeatures(h *detector.HandLandmarks, tun Tunables) FeatureVector {
	wrist := h.Points[detector.Wrist]

	var f FeatureVector
	f.WristX = wrist.X
	f.WristY = wrist.Y
	f.IndexTipX = h.Points[detector.IndexTip].X
	f.IndexTipY = h.Points[detector.IndexTip].Y

	var extended [5]bool
	var tipDistSum float64
	for i, joints := range fingerJoints {
		tipDist := detector.Dist2D(h.Points[joints[0]], wrist)
		mcpDist := detector.Dist2D(h.Points[joints[1]], wrist)
		extended[i] = tipDist > tun.ExtensionRatio*mcpDist
		tipDistSum += tipDist
	}
	f.ThumbExtended = extended[0]
	f.IndexExtended = extended[1]
	f.MiddleExtended = extended[2]
	f.RingExtended = extended[3]
	f.PinkyExtended = extended[4]

	// Hand-size normalization: wrist to middle MCP is the reference span,
	// making openness invariant to how far the hand is from the camera.
	ref := detector.Dist2D(h.Points[detector.MiddleMCP], wrist)
	if ref <= 1e-9 {
		f.Openness = 0
		return f
	}
	raw := tipDistSum / 5 / ref
	f.Openness = clamp01((raw - tun.OpennessRawMin) / (tun.OpennessRawMax - tun.OpennessRawMin))

	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp11(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
