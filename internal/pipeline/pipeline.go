// Package pipeline drives the per-frame gesture-to-control cycle: read a
// camera frame, run hand landmark inference, extract features, classify,
// update the smoother and publish one ControlState to all subscribers.
package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
)

// ModelState tracks landmark model initialization.
type ModelState string

const (
	ModelUninitialized ModelState = "uninitialized"
	ModelLoading       ModelState = "loading"
	ModelReady         ModelState = "ready"
	ModelFailed        ModelState = "failed"
)

// CameraState tracks camera acquisition. It is independent of ModelState:
// either side can fail and be retried without touching the other.
type CameraState string

const (
	CameraIdle             CameraState = "idle"
	CameraRequesting       CameraState = "requesting"
	CameraReady            CameraState = "ready"
	CameraUnsupported      CameraState = "unsupported"
	CameraPermissionDenied CameraState = "permission_denied"
	CameraError            CameraState = "error"
)

// ModelLoader constructs the landmark detector. Loading can be slow (model
// download, subprocess spawn), so it runs on its own goroutine during Start.
type ModelLoader func() (detector.Detector, error)

// Config holds pipeline configuration.
type Config struct {
	// CaptureFPS is the steady-state cycle rate.
	CaptureFPS int
	// Tunables parameterize feature extraction, classification and
	// smoothing.
	Tunables control.Tunables
}

// Subscriber receives every published ControlState. Each call replaces all
// prior state; no diffing or buffering is provided.
type Subscriber func(control.ControlState)

// Pipeline owns the persistent control state and the frame loop. The
// smoother is mutated only inside the loop's synchronous cycle; there is
// never a second concurrent writer.
type Pipeline struct {
	cfg    Config
	camera capture.Camera
	loader ModelLoader

	mu          sync.Mutex
	det         detector.Detector
	smoother    *control.Smoother
	subscribers []Subscriber
	modelState  ModelState
	cameraState CameraState
	cameraErr   error
	modelErr    error
	lastState   control.ControlState
	lastTS      int64
	enabled     bool
	stopCh      chan struct{}
	closed      bool
	loopRunning bool
	wg          sync.WaitGroup
}

// Status is a snapshot of the two initialization state machines, for the
// health endpoint and the tray.
type Status struct {
	Model  ModelState  `json:"model"`
	Camera CameraState `json:"camera"`
}

// New creates a Pipeline. Nothing is acquired until Start.
func New(cfg Config, camera capture.Camera, loader ModelLoader) *Pipeline {
	if cfg.CaptureFPS <= 0 {
		cfg.CaptureFPS = 30
	}
	return &Pipeline{
		cfg:         cfg,
		camera:      camera,
		loader:      loader,
		smoother:    control.NewSmoother(cfg.Tunables),
		modelState:  ModelUninitialized,
		cameraState: CameraIdle,
		enabled:     true,
		lastState: control.ControlState{
			Gesture:  control.GestureNeutral,
			Openness: control.NeutralOpenness,
		},
	}
}

// Subscribe registers a consumer callback. Callbacks run synchronously
// inside the frame cycle, so they must be fast.
func (p *Pipeline) Subscribe(fn Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Current returns the most recently published state.
func (p *Pipeline) Current() control.ControlState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastState
}

// Status returns a snapshot of both initialization state machines.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{Model: p.modelState, Camera: p.cameraState}
}

// SetEnabled pauses or resumes cycling without releasing any resource.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetTunables swaps the tuning set mid-flight. Committed yaw/pitch are kept.
func (p *Pipeline) SetTunables(tun control.Tunables) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Tunables = tun
	p.smoother.SetTunables(tun)
}

// Start kicks off model loading and camera acquisition on independent
// goroutines. Steady-state cycling begins once both report ready.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.stopCh != nil {
		return
	}
	p.stopCh = make(chan struct{})
	p.startModelLocked()
	p.startCameraLocked()
}

// RetryModel restarts model loading after a failure. Camera state is
// untouched.
func (p *Pipeline) RetryModel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.modelState != ModelFailed {
		return
	}
	p.startModelLocked()
}

// RetryCamera reattempts camera acquisition after a transient error or a
// permission change. The model is untouched; unsupported hardware is
// terminal and not retried.
func (p *Pipeline) RetryCamera() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.cameraState == CameraUnsupported {
		return
	}
	if p.cameraState != CameraPermissionDenied && p.cameraState != CameraError {
		return
	}
	p.startCameraLocked()
}

func (p *Pipeline) startModelLocked() {
	p.modelState = ModelLoading
	go func() {
		det, err := p.loader()

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			// Teardown happened while loading: the late result must
			// never be applied, only released.
			if det != nil {
				det.Close()
			}
			return
		}
		if err != nil {
			p.modelState = ModelFailed
			p.modelErr = err
			log.Error().Err(err).Msg("landmark model failed to load")
			return
		}
		p.det = det
		p.modelState = ModelReady
		log.Info().Msg("landmark model ready")
		p.maybeRunLocked()
	}()
}

func (p *Pipeline) startCameraLocked() {
	p.cameraState = CameraRequesting
	go func() {
		err := p.camera.Open()

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			if err == nil {
				p.camera.Close()
			}
			return
		}
		if err != nil {
			p.cameraErr = err
			switch {
			case errors.Is(err, capture.ErrUnsupported):
				p.cameraState = CameraUnsupported
			case errors.Is(err, capture.ErrPermissionDenied):
				p.cameraState = CameraPermissionDenied
			default:
				p.cameraState = CameraError
			}
			log.Error().Err(err).Str("state", string(p.cameraState)).
				Msg("camera acquisition failed")
			return
		}
		p.cameraState = CameraReady
		log.Info().Msg("camera ready")
		p.maybeRunLocked()
	}()
}

// maybeRunLocked starts the frame loop once both state machines are ready.
func (p *Pipeline) maybeRunLocked() {
	if p.loopRunning || p.modelState != ModelReady || p.cameraState != CameraReady {
		return
	}
	p.loopRunning = true
	p.wg.Add(1)
	go p.runLoop(p.stopCh)
}

// runLoop is the cooperative frame loop: one cycle per tick at the capture
// rate, suspended between frames.
func (p *Pipeline) runLoop(stopCh chan struct{}) {
	defer p.wg.Done()

	interval := time.Second / time.Duration(p.cfg.CaptureFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.cycle()
		}
	}
}

// cycle runs one read-detect-extract-classify-smooth-publish pass. A failure
// anywhere in a single frame is logged and dropped; the next frame is always
// attempted and the smoother state is never corrupted by a failed frame.
func (p *Pipeline) cycle() {
	state, subs, ok := p.step()
	if !ok {
		return
	}
	// Fan-out happens outside the pipeline lock so a subscriber may call
	// back into Current or Status.
	for _, fn := range subs {
		fn(state)
	}
}

// step performs the locked portion of one cycle and reports whether a state
// was produced for publication.
func (p *Pipeline) step() (state control.ControlState, subs []Subscriber, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("frame cycle panicked")
			ok = false
		}
	}()

	if !p.enabled || p.closed || p.det == nil {
		return state, nil, false
	}

	frame, ts, err := p.camera.ReadFrame()
	if err != nil {
		log.Debug().Err(err).Msg("frame read failed")
		return state, nil, false
	}
	defer frame.Close()

	// The camera can deliver frames slower than we poll. A frame whose
	// presentation timestamp has not advanced was already processed, so
	// inference is skipped outright.
	if ts == p.lastTS {
		return state, nil, false
	}
	p.lastTS = ts

	hands, err := p.det.Detect(frame, ts)
	if err != nil {
		log.Warn().Err(err).Int64("ts", ts).Msg("landmark inference failed")
		return state, nil, false
	}

	tun := p.cfg.Tunables
	if len(hands) > 0 && hands[0].Valid() {
		// Multi-hand results are defined to use only the first.
		f := control.ExtractFeatures(&hands[0], tun)
		gesture := control.Classify(f, tun)
		yaw, pitch := p.smoother.Update(gesture, f)
		state = control.ControlState{
			HandDetected: true,
			Gesture:      gesture,
			Yaw:          yaw,
			Pitch:        pitch,
			Openness:     f.Openness,
			TimestampMs:  ts,
		}
	} else {
		// No hand (or malformed landmarks, treated the same): rotation
		// holds its committed values, openness relaxes to the midpoint.
		state = control.ControlState{
			HandDetected: false,
			Gesture:      control.GestureNeutral,
			Yaw:          p.smoother.Yaw(),
			Pitch:        p.smoother.Pitch(),
			Openness:     control.NeutralOpenness,
			TimestampMs:  ts,
		}
	}

	p.lastState = state
	subs = make([]Subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	return state, subs, true
}

// Stop tears the pipeline down: the loop stops requesting frames, then the
// camera and the model release their resources. Safe to call repeatedly and
// at any point of initialization.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.camera.Close(); err != nil {
		log.Warn().Err(err).Msg("camera close")
	}
	if p.det != nil {
		if err := p.det.Close(); err != nil {
			log.Warn().Err(err).Msg("detector close")
		}
		p.det = nil
	}
	p.cameraState = CameraIdle
	p.modelState = ModelUninitialized
	log.Info().Msg("pipeline stopped")
}
