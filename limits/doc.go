// Package limits provides centralized frame size constants and validation functions
// for the denoising stage. Every component that allocates or negotiates a frame
// buffer consults this package so that upstream sources, backends and the filter
// instance agree on what a legal frame is.
//
// # Size Bounds
//
//   - MinFrameDimension (1): the smallest size a filter instance reports to the host
//     pipeline, even when it has no upstream source.
//
//   - MaxFrameWidth / MaxFrameHeight (8192): the largest buffer the stage will
//     allocate. Backends may advertise tighter limits through their resize hook.
//
// # Validation Functions
//
//	if err := limits.ValidateFrameSize(w, h); err != nil {
//	    if errors.Is(err, limits.ErrFrameTooLarge) {
//	        // reject
//	    }
//	}
//
//	w, h = limits.ClampFrameSize(w, h, 3840, 2160)
package limits
