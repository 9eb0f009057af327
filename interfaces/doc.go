// Package interfaces defines the capability boundaries of the denoising stage.
//
// The filter instance never talks to a concrete backend, worker pool or host
// pipeline directly. It consumes the interfaces declared here, which lets the
// same state machine run against real backends in production and against the
// simulated implementations in the testing package.
//
// # Core Interfaces
//
// [IProvider] is a denoising backend. It is loaded and unloaded by a background
// switch task and called from the render goroutine, always under the owning
// instance's provider lock:
//
//	if err := p.Load(); err != nil {
//	    return err
//	}
//	out, err := p.Process(input)
//
// Backends that restrict the frame size also implement [IResizer].
//
// [ITaskRunner] is the shared background pool that runs switch tasks. It keeps
// at most one pending task per owner; older queued tasks are evicted.
//
// [IHost] is the pipeline placement contract: upstream size discovery, frame
// capture, pass-through and publication.
package interfaces
