// Package filter implements a single denoising filter instance: the provider
// switch state machine and the per-frame capture, process and publish
// pipeline.
//
// # Lifecycle
//
//	inst, err := filter.New(host, registry, pool, filter.WithName("camera"))
//	if err != nil {
//	    return err
//	}
//	defer inst.Close()
//
//	// every frame, on the render goroutine
//	inst.Tick()
//	inst.Render()
//
// An instance starts in pass-through (provider Invalid, ready) and switches
// to the provider named by its settings in the background. While a switch is
// in flight the instance is not ready and Render asks the host to skip it.
//
// # Switching
//
// Update resolves Automatic through the registry. When the resolved kind
// differs from the current one, the instance records the new kind, clears
// ready and queues a switch task on the task runner, cancelling a previous
// task that has not started yet. The task unloads the loaded backend, loads
// one for whatever kind is current when it gets the lock, applies the last
// settings and marks the instance ready. Rapid consecutive requests therefore
// settle on the latest one. A failed load is logged and leaves the instance
// not ready until the provider is selected again.
//
// # Rendering
//
// Tick reads the upstream size, lets the backend restrict it and marks the
// cached output stale. Render captures the upstream frame into the input
// buffer, hands it to the backend and publishes the result; with no backend
// (Invalid) the input is published as is. Until the next Tick, further Render
// calls republish the cached output without calling the backend. Capture
// refusals, process errors and nil results all skip the frame.
//
// # Teardown
//
// Close takes the provider lock, cancels a queued switch and unloads the
// loaded backend synchronously, exactly once. Switch tasks that start after
// Close do nothing.
package filter
