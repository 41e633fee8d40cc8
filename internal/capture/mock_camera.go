package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockFrame pairs a frame with its scripted presentation timestamp.
type MockFrame struct {
	Mat         *gocv.Mat
	TimestampMs int64
}

// MockCamera plays back scripted frames for testing. Repeating a timestamp
// simulates the capture loop polling faster than the device delivers.
type MockCamera struct {
	frames  []MockFrame
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
	openErr error
}

func NewMockCamera(frames []MockFrame, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

// FailOpenWith makes the next Open calls return err. Pass nil to recover.
func (c *MockCamera) FailOpenWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, 0, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, 0, fmt.Errorf("no frames available")
	}

	if c.index >= len(c.frames) {
		if c.loop {
			c.index = 0
		} else {
			// Keep replaying the final frame; an unchanged timestamp
			// tells the scheduler nothing new arrived.
			c.index = len(c.frames) - 1
		}
	}

	f := c.frames[c.index]
	c.index++

	// Clone so the caller can close its copy without touching the script.
	frame := f.Mat.Clone()
	return &frame, f.TimestampMs, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence and restarts playback.
func (c *MockCamera) SetFrames(frames []MockFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
