package control

// Classify maps a feature vector to a gesture label. Rules are evaluated in
// priority order and the first match wins, which resolves the overlapping
// feature combinations deterministically.
//
// The OPEN/CLOSED decision rides on openness rather than extension counts:
// the booleans get noisy near partial curls, while openness is continuous
// and hand-size normalized. VICTORY and POINTING are topologically distinct
// two-finger shapes, so discrete per-finger state discriminates them better
// than any degree measure.
func Classify(f FeatureVector, tun Tunables) Gesture {
	switch {
	case f.Openness >= tun.OpenThreshold:
		return GestureOpen
	case f.Openness <= tun.ClosedThreshold:
		return GestureClosed
	case f.IndexExtended && f.MiddleExtended && !f.RingExtended && !f.PinkyExtended:
		return GestureVictory
	case f.IndexExtended && !f.ThumbExtended && !f.MiddleExtended && !f.RingExtended && !f.PinkyExtended:
		return GesturePointing
	default:
		return GestureNeutral
	}
}
