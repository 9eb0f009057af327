// Package taskpool implements the shared background worker pool that runs
// provider switch tasks off the render goroutine.
//
// A Pool owns a fixed number of workers draining one FIFO queue. Each task is
// tagged with an owner; enqueueing a new task for an owner evicts that owner's
// task if it is still waiting, which is how a superseded provider switch is
// dropped before it ever runs:
//
//	pool := taskpool.New(0) // GOMAXPROCS workers
//	defer pool.Close()
//
//	task := pool.Enqueue(instance, payload, func(payload any) {
//	    // unload old backend, load new one
//	})
//	if err := task.Wait(ctx); err != nil {
//	    // cancelled, pool closed or ctx expired
//	}
//
// Cancellation is advisory. A task that a worker already picked up is never
// interrupted; Cancel returns false for it and callers must serialize with
// their own locks.
package taskpool
