package pipeline

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
)

// testTunables disables smoothing so mapped targets commit in one frame.
func testTunables() control.Tunables {
	tun := control.DefaultTunables()
	tun.Smoothing = 1.0
	return tun
}

// newTestRig builds a pipeline with a mock camera serving frames at the
// given timestamps and a mock detector, already in the both-ready state so
// cycles can be driven by hand.
func newTestRig(t *testing.T, timestamps []int64) (*Pipeline, *detector.MockDetector, *capture.MockCamera) {
	t.Helper()

	mat := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })

	frames := make([]capture.MockFrame, len(timestamps))
	for i, ts := range timestamps {
		frames[i] = capture.MockFrame{Mat: &mat, TimestampMs: ts}
	}

	cam := capture.NewMockCamera(frames, false)
	require.NoError(t, cam.Open())

	det := detector.NewMockDetector()
	p := New(Config{CaptureFPS: 30, Tunables: testTunables()}, cam, func() (detector.Detector, error) {
		return det, nil
	})

	p.mu.Lock()
	p.det = det
	p.modelState = ModelReady
	p.cameraState = CameraReady
	p.mu.Unlock()

	return p, det, cam
}

func collect(p *Pipeline) *[]control.ControlState {
	var states []control.ControlState
	p.Subscribe(func(s control.ControlState) {
		states = append(states, s)
	})
	return &states
}

func TestPipeline_PublishesHandState(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10, 20, 30})
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks(0.2, 0.5)})
	states := collect(p)

	for i := 0; i < 3; i++ {
		p.cycle()
	}

	require.Len(t, *states, 3)
	for _, s := range *states {
		assert.True(t, s.HandDetected)
		assert.Equal(t, control.GestureOpen, s.Gesture)
		assert.InDelta(t, 0.6, s.Yaw, 1e-9) // wrist at x=0.2, mirrored
	}
	assert.Equal(t, int64(30), (*states)[2].TimestampMs)
}

// Feeding a "no hand" result must publish NEUTRAL with openness 0.5 while
// yaw and pitch keep their last committed values.
func TestPipeline_NoHandDefaults(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10, 20})
	det.QueueResults(
		[]detector.HandLandmarks{detector.OpenPalmLandmarks(0.2, 0.5)},
		nil,
	)
	states := collect(p)

	p.cycle()
	p.cycle()

	require.Len(t, *states, 2)
	last := (*states)[1]
	assert.False(t, last.HandDetected)
	assert.Equal(t, control.GestureNeutral, last.Gesture)
	assert.InDelta(t, control.NeutralOpenness, last.Openness, 1e-9)
	assert.InDelta(t, 0.6, last.Yaw, 1e-9, "yaw must not reset when the hand is lost")
	assert.Zero(t, last.Pitch)
}

// Two cycles against an unchanged presentation timestamp must invoke the
// landmark source at most once.
func TestPipeline_FrameDeduplication(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10, 10})
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks(0.5, 0.5)})
	states := collect(p)

	p.cycle()
	p.cycle()

	assert.Equal(t, 1, det.Calls)
	assert.Len(t, *states, 1, "a skipped duplicate frame is not a processed cycle")
}

// A landmark source failure on frame N is logged and dropped: frame N+1 is
// still attempted and the smoother state is exactly what it was before.
func TestPipeline_FailureIsolation(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10, 20, 30})
	states := collect(p)

	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks(0.2, 0.5)})
	p.cycle()
	require.Len(t, *states, 1)
	yawBefore := (*states)[0].Yaw

	det.SetError(errors.New("inference backend crashed"))
	p.cycle()
	assert.Len(t, *states, 1, "failed frame must not publish")

	det.SetError(nil)
	det.SetHands(nil)
	p.cycle()

	require.Len(t, *states, 2)
	assert.Equal(t, 3, det.Calls, "frame after a failure must still be attempted")
	assert.InDelta(t, yawBefore, (*states)[1].Yaw, 1e-9, "failure corrupted smoother state")
}

// OPEN -> CLOSED -> OPEN: yaw is frozen for the whole CLOSED segment and
// resumes only when OPEN recurs.
func TestPipeline_StickyYawScenario(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10, 20, 30, 40})
	det.QueueResults(
		[]detector.HandLandmarks{detector.OpenPalmLandmarks(0.2, 0.5)},
		[]detector.HandLandmarks{detector.FistLandmarks(0.8, 0.5)},
		[]detector.HandLandmarks{detector.FistLandmarks(0.9, 0.4)},
		[]detector.HandLandmarks{detector.OpenPalmLandmarks(0.5, 0.5)},
	)
	states := collect(p)

	for i := 0; i < 4; i++ {
		p.cycle()
	}

	require.Len(t, *states, 4)
	assert.Equal(t, control.GestureOpen, (*states)[0].Gesture)
	assert.Equal(t, control.GestureClosed, (*states)[1].Gesture)
	assert.Equal(t, control.GestureClosed, (*states)[2].Gesture)
	assert.Equal(t, control.GestureOpen, (*states)[3].Gesture)

	assert.InDelta(t, (*states)[0].Yaw, (*states)[1].Yaw, 1e-9)
	assert.InDelta(t, (*states)[1].Yaw, (*states)[2].Yaw, 1e-9)
	assert.InDelta(t, 0, (*states)[3].Yaw, 1e-9, "yaw resumes tracking once OPEN recurs")
}

// Malformed landmark data is treated exactly like "no hand detected".
func TestPipeline_MalformedLandmarks(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10})
	bad := detector.OpenPalmLandmarks(0.5, 0.5)
	bad.Points[detector.IndexTip].X = math.NaN()
	det.SetHands([]detector.HandLandmarks{bad})
	states := collect(p)

	p.cycle()

	require.Len(t, *states, 1)
	assert.False(t, (*states)[0].HandDetected)
	assert.Equal(t, control.GestureNeutral, (*states)[0].Gesture)
	assert.InDelta(t, control.NeutralOpenness, (*states)[0].Openness, 1e-9)
}

// Multi-hand results use only the first hand.
func TestPipeline_FirstHandWins(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10})
	det.SetHands([]detector.HandLandmarks{
		detector.FistLandmarks(0.5, 0.5),
		detector.OpenPalmLandmarks(0.5, 0.5),
	})
	states := collect(p)

	p.cycle()

	require.Len(t, *states, 1)
	assert.Equal(t, control.GestureClosed, (*states)[0].Gesture)
}

func TestPipeline_DisabledSkipsCycling(t *testing.T) {
	p, det, _ := newTestRig(t, []int64{10, 20})
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks(0.5, 0.5)})
	states := collect(p)

	p.SetEnabled(false)
	p.cycle()
	assert.Zero(t, det.Calls)
	assert.Empty(t, *states)

	p.SetEnabled(true)
	p.cycle()
	assert.Equal(t, 1, det.Calls)
	assert.Len(t, *states, 1)
}

// closeTrackingDetector wraps a detector and records Close calls.
type closeTrackingDetector struct {
	*detector.MockDetector
	closed chan struct{}
}

func (d *closeTrackingDetector) Close() error {
	close(d.closed)
	return nil
}

// A model load completing after teardown must be discarded: the detector is
// released, never installed.
func TestPipeline_LateModelResultDiscarded(t *testing.T) {
	mat := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer mat.Close()

	cam := capture.NewMockCamera([]capture.MockFrame{{Mat: &mat, TimestampMs: 1}}, true)
	release := make(chan struct{})
	det := &closeTrackingDetector{
		MockDetector: detector.NewMockDetector(),
		closed:       make(chan struct{}),
	}

	p := New(Config{Tunables: testTunables()}, cam, func() (detector.Detector, error) {
		<-release
		return det, nil
	})

	p.Start()
	p.Stop()
	close(release)

	select {
	case <-det.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("late-arriving detector was not released")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Nil(t, p.det, "late model result must not be applied after teardown")
}

// Camera and model state machines fail and recover independently: a camera
// permission retry must not reload the model.
func TestPipeline_IndependentCameraRetry(t *testing.T) {
	mat := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer mat.Close()

	cam := capture.NewMockCamera([]capture.MockFrame{{Mat: &mat, TimestampMs: 1}}, true)
	cam.FailOpenWith(capture.ErrPermissionDenied)

	var loads atomic.Int32
	p := New(Config{Tunables: testTunables()}, cam, func() (detector.Detector, error) {
		loads.Add(1)
		return detector.NewMockDetector(), nil
	})
	defer p.Stop()

	p.Start()
	require.Eventually(t, func() bool {
		st := p.Status()
		return st.Camera == CameraPermissionDenied && st.Model == ModelReady
	}, 2*time.Second, 10*time.Millisecond)

	cam.FailOpenWith(nil)
	p.RetryCamera()
	require.Eventually(t, func() bool {
		return p.Status().Camera == CameraReady
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), loads.Load(), "camera retry must not reload the model")
}

func TestPipeline_StopIsIdempotent(t *testing.T) {
	p, _, cam := newTestRig(t, []int64{10})

	// Stop twice, including once before the loop ever ran.
	p.Stop()
	p.Stop()

	assert.False(t, cam.IsOpen())
	st := p.Status()
	assert.Equal(t, CameraIdle, st.Camera)
	assert.Equal(t, ModelUninitialized, st.Model)
}
