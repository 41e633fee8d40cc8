package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to script detection results per call.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	queue [][]HandLandmarks

	// Calls counts Detect invocations; Timestamps records the timestamp
	// passed to each. Tests use these to verify frame de-duplication.
	Calls      int
	Timestamps []int64
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
	m.queue = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// QueueResults scripts a sequence of per-call results. Once the queue is
// drained, Detect falls back to the hands set via SetHands.
func (m *MockDetector) QueueResults(results ...[]HandLandmarks) {
	m.queue = append(m.queue, results...)
}

// Detect returns the pre-configured hands or error and records the call.
func (m *MockDetector) Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error) {
	m.Calls++
	m.Timestamps = append(m.Timestamps, timestampMs)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Synthetic poses for tests. All builders share one palm skeleton (wrist,
// thumb CMC, five MCP knuckles) and differ only in how each finger leaves
// its knuckle, so poses interpolate cleanly into each other.

// baseHand lays out the palm skeleton around a wrist at (cx, cy).
func baseHand(cx, cy float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: cx, Y: cy, Z: 0}
	h.Points[ThumbCMC] = Point3D{X: cx + 0.04, Y: cy - 0.03, Z: 0}
	h.Points[ThumbMCP] = Point3D{X: cx + 0.07, Y: cy - 0.07, Z: 0}
	h.Points[IndexMCP] = Point3D{X: cx + 0.05, Y: cy - 0.12, Z: 0}
	h.Points[MiddleMCP] = Point3D{X: cx, Y: cy - 0.13, Z: 0}
	h.Points[RingMCP] = Point3D{X: cx - 0.05, Y: cy - 0.12, Z: 0}
	h.Points[PinkyMCP] = Point3D{X: cx - 0.09, Y: cy - 0.10, Z: 0}
	return h
}

// extendFinger lays the PIP/DIP/tip joints along a straight ray from the
// MCP, each segment seg long in direction (dx, dy).
func extendFinger(h *HandLandmarks, mcp int, dx, dy, seg float64) {
	base := h.Points[mcp]
	for i := 1; i < 4; i++ {
		h.Points[mcp+i] = Point3D{
			X: base.X + dx*seg*float64(i),
			Y: base.Y + dy*seg*float64(i),
			Z: 0,
		}
	}
}

// curlFinger folds a finger so its tip ends up slightly closer to the wrist
// than the MCP joint, which reads as "not extended" to the feature extractor
// while keeping the tip clear of the palm.
func curlFinger(h *HandLandmarks, mcp int) {
	wrist := h.Points[Wrist]
	base := h.Points[mcp]
	h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.03, Z: -0.02}
	h.Points[mcp+2] = Point3D{
		X: base.X + (wrist.X-base.X)*0.05,
		Y: base.Y + (wrist.Y-base.Y)*0.05,
		Z: -0.03,
	}
	h.Points[mcp+3] = Point3D{
		X: base.X + (wrist.X-base.X)*0.1,
		Y: base.Y + (wrist.Y-base.Y)*0.1,
		Z: -0.02,
	}
}

// OpenPalmLandmarks returns a hand with all five fingers fully extended,
// wrist at (cx, cy). Openness comes out at the top of its range.
func OpenPalmLandmarks(cx, cy float64) HandLandmarks {
	h := baseHand(cx, cy)
	extendFinger(&h, ThumbMCP, 0.9, -0.5, 0.05)
	extendFinger(&h, IndexMCP, 0.2, -1, 0.06)
	extendFinger(&h, MiddleMCP, 0, -1, 0.065)
	extendFinger(&h, RingMCP, -0.2, -1, 0.06)
	extendFinger(&h, PinkyMCP, -0.3, -1, 0.05)
	return h
}

// FistLandmarks returns a closed fist with the wrist at (cx, cy): every tip
// pulled back near its knuckle, so openness lands at the bottom of its range.
func FistLandmarks(cx, cy float64) HandLandmarks {
	h := baseHand(cx, cy)
	curlFinger(&h, ThumbMCP)
	curlFinger(&h, IndexMCP)
	curlFinger(&h, MiddleMCP)
	curlFinger(&h, RingMCP)
	curlFinger(&h, PinkyMCP)
	return h
}

// PointingLandmarks returns a hand with only the index finger extended and
// the index tip pinned at (tipX, tipY). The wrist sits below the tip.
func PointingLandmarks(tipX, tipY float64) HandLandmarks {
	h := FistLandmarks(tipX, tipY+0.3)
	extendFinger(&h, IndexMCP, 0, -1, 0.06)
	h.Points[IndexTip] = Point3D{X: tipX, Y: tipY, Z: 0}
	return h
}

// VictoryLandmarks returns a hand with index and middle fingers extended and
// thumb, ring and pinky curled, wrist at (cx, cy).
func VictoryLandmarks(cx, cy float64) HandLandmarks {
	h := FistLandmarks(cx, cy)
	extendFinger(&h, IndexMCP, 0.3, -1, 0.06)
	extendFinger(&h, MiddleMCP, -0.1, -1, 0.065)
	return h
}
