// Package capture provides camera acquisition using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Preferred capture settings. These are hints; the device picks the nearest
// mode it supports.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Camera failure categories. They require different recovery paths:
// unsupported hardware cannot be retried at all, a permission denial needs
// the user to change OS-level camera permissions, and a transient error can
// simply be retried.
var (
	ErrCameraNotOpen    = errors.New("camera is not open")
	ErrUnsupported      = errors.New("no capture-capable camera device")
	ErrPermissionDenied = errors.New("camera access denied")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	// Open acquires the device. Failures wrap ErrUnsupported or
	// ErrPermissionDenied when the cause can be distinguished; anything
	// else is a transient acquisition error.
	Open() error

	// Close releases the device. Idempotent.
	Close() error

	// ReadFrame reads a single frame and its presentation timestamp in
	// milliseconds. Timestamps are monotonic; an unchanged timestamp
	// means the device has not delivered a new frame yet. The caller is
	// responsible for closing the returned Mat.
	ReadFrame() (*gocv.Mat, int64, error)

	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	lastTS   int64
}

// NewCamera creates a new Camera with the given device ID.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{deviceID: deviceID}
}

// Open opens the camera and applies the preferred resolution hints.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return classifyOpenError(err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d", ErrUnsupported, c.deviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)

	c.capture = capture
	c.running = true

	return nil
}

// classifyOpenError sorts a device-open failure into the taxonomy the
// pipeline's camera state machine distinguishes. OpenCV reports failures as
// strings, so this is a best-effort match with transient as the fallback.
func classifyOpenError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no such") || strings.Contains(msg, "not found") ||
		strings.Contains(msg, "invalid device"):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	default:
		return err
	}
}

// Close closes the camera and releases the hardware. Idempotent.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, 0, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, 0, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, 0, errors.New("captured frame is empty")
	}

	// Webcams rarely report a usable position timestamp, so fall back to
	// wall clock. Either way the value increases with every new frame.
	ts := int64(c.capture.Get(gocv.VideoCapturePosMsec))
	if ts <= c.lastTS {
		ts = time.Now().UnixMilli()
	}
	if ts <= c.lastTS {
		ts = c.lastTS + 1
	}
	c.lastTS = ts

	return &mat, ts, nil
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
