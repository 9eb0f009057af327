package interfaces

import "context"

// TaskState describes where a queued unit of work is in its lifecycle.
type TaskState int32

const (
	// TaskQueued indicates the task is waiting for a worker
	TaskQueued TaskState = iota
	// TaskRunning indicates a worker has started the task
	TaskRunning
	// TaskDone indicates the task function returned
	TaskDone
	// TaskCancelled indicates the task was evicted before it started
	TaskCancelled
)

// String returns the lowercase state name.
func (s TaskState) String() string {
	switch s {
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	case TaskDone:
		return "done"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TaskFunc is the body of a background task. It receives the payload given to
// Enqueue.
type TaskFunc func(payload any)

// ITask is a handle to a task accepted by an ITaskRunner.
type ITask interface {
	// ID returns a unique identifier for logging
	ID() string

	// State returns the current lifecycle state
	State() TaskState

	// Wait blocks until the task is done or cancelled, or ctx expires
	Wait(ctx context.Context) error
}

// ITaskRunner defines the shared background worker pool.
//
// The runner keeps at most one pending task per owner: enqueueing a new task
// for an owner evicts that owner's queued-but-not-started task. A task that
// already started is never preempted, and the runner does not serialize tasks
// of the same owner; callers must lock.
type ITaskRunner interface {
	// Enqueue schedules fn(payload) and returns its handle
	Enqueue(owner any, payload any, fn TaskFunc) ITask

	// Cancel removes a queued task. It returns false if the task already
	// started, finished or was cancelled before.
	Cancel(task ITask) bool
}
