// Package detector provides hand landmark detection interfaces and types.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a single landmark in normalized image coordinates.
// X and Y are nominally in [0,1]; Z is relative depth and unitless.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks for one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Coordinate slack for Valid. MediaPipe landmarks can land slightly outside
// the image, so the accepted range is wider than the nominal [0,1].
const coordSlack = 0.5

// Dist2D returns the Euclidean distance between two landmarks in the image
// plane, ignoring depth. Finger extension and openness measurements work in
// the image plane because Z is far noisier than X/Y.
func Dist2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Valid reports whether the landmark set is well formed: every point finite
// and within the tolerated coordinate range. Callers treat malformed sets as
// "no hand detected" instead of feeding them to feature extraction.
func (h *HandLandmarks) Valid() bool {
	if h == nil {
		return false
	}
	for i := 0; i < NumLandmarks; i++ {
		p := h.Points[i]
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			return false
		}
		if math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
			return false
		}
		if p.X < -coordSlack || p.X > 1+coordSlack {
			return false
		}
		if p.Y < -coordSlack || p.Y > 1+coordSlack {
			return false
		}
	}
	return true
}
