package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// timestampMs is the frame's presentation timestamp and must increase
	// monotonically across calls. Returns an empty slice if no hands are
	// detected. The control pipeline only consumes the first hand.
	Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. The control
	// pipeline tracks exactly one hand, so the default is 1.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// PreferGPU asks the landmarker runtime for its GPU delegate. The
	// runtime falls back to CPU inference on its own when no usable GPU
	// is present, so this is a hint rather than a requirement.
	PreferGPU bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		PreferGPU:       true,
	}
}
