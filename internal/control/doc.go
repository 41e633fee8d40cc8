// Package control is the gesture-to-control mapping core: it turns noisy
// per-frame hand landmark sets into a stable, smoothed ControlState that
// drives the particle renderer.
//
// The published contract is the ControlState struct. Consumers must treat
// every published state as a full replacement of the previous one:
//
//   - HandDetected reports whether the current frame produced a usable
//     landmark set. Malformed landmark data counts as "no hand".
//   - Gesture is the discrete label for the current frame. It is NEUTRAL
//     whenever no hand is detected.
//   - Yaw and Pitch are sticky rotation handles in [-1, 1]. Yaw changes only
//     while the OPEN gesture is held (mirrored horizontal wrist position);
//     Pitch changes only while POINTING is held (index fingertip height, top
//     of frame mapping to +1). At all other times, including no-hand frames,
//     both hold their last committed values. Losing tracking never snaps
//     rotation back to zero.
//   - Openness is a hand-size-normalized measure in [0, 1] of how extended
//     the fingers are, recomputed on every frame with a hand. Without a hand
//     it is the neutral midpoint 0.5, so gesture-driven animation parameters
//     relax to a resting state instead of jumping to an extreme.
//
// Every threshold involved (finger extension multiplier, openness cutoffs,
// raw ratio calibration range, smoothing factor) is a field of Tunables;
// none of them is derived, all are empirically tuned.
package control
