package control

// Smoother owns the persistent rotation state and applies the gesture-gated
// update rules. Yaw and pitch are sticky handles: each moves only while its
// gating gesture is held and otherwise keeps its last committed value, even
// across frames with no hand at all. Gating is what keeps the axes from
// drifting with ordinary landmark jitter while the user holds a static pose.
//
// A Smoother is owned by a single pipeline and is not safe for concurrent
// use; the scheduler is its only writer.
type Smoother struct {
	yaw   float64
	pitch float64
	tun   Tunables
}

// NewSmoother creates a Smoother with both axes at rest.
func NewSmoother(tun Tunables) *Smoother {
	return &Smoother{tun: tun}
}

// Update applies one frame's gated update and returns the committed yaw and
// pitch. It never fails.
func (s *Smoother) Update(gesture Gesture, f FeatureVector) (yaw, pitch float64) {
	switch gesture {
	case GestureOpen:
		// Mirrored so moving the hand toward the user's right turns the
		// scene the way the hand moves on screen.
		target := clamp11((0.5 - f.WristX) * 2)
		s.yaw += s.tun.Smoothing * (target - s.yaw)
	case GesturePointing:
		// Top of frame is +1, bottom is -1.
		target := clamp11((0.5 - f.IndexTipY) * 2)
		s.pitch += s.tun.Smoothing * (target - s.pitch)
	}
	return s.yaw, s.pitch
}

// Yaw returns the last committed yaw.
func (s *Smoother) Yaw() float64 { return s.yaw }

// Pitch returns the last committed pitch.
func (s *Smoother) Pitch() float64 { return s.pitch }

// SetTunables swaps the tuning set without touching the committed axes.
func (s *Smoother) SetTunables(tun Tunables) { s.tun = tun }

// Reset returns both axes to zero. Used when a pipeline is torn down and
// rebuilt, never during steady-state cycling.
func (s *Smoother) Reset() {
	s.yaw = 0
	s.pitch = 0
}
