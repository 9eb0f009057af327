package taskpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/sirupsen/logrus"
)

// ErrPoolClosed is returned by Wait for tasks that were dropped because the
// pool shut down before they started.
var ErrPoolClosed = errors.New("task pool closed")

// ErrTaskCancelled is returned by Wait for tasks evicted before they started.
var ErrTaskCancelled = errors.New("task cancelled")

// Task is a unit of work accepted by a Pool.
type Task struct {
	id      uuid.UUID
	owner   any
	payload any
	fn      interfaces.TaskFunc

	state  atomic.Int32
	done   chan struct{}
	reason error
}

// ID returns the task's unique identifier.
func (t *Task) ID() string {
	return t.id.String()
}

// State returns the task's current lifecycle state.
func (t *Task) State() interfaces.TaskState {
	return interfaces.TaskState(t.state.Load())
}

// Wait blocks until the task finished or was cancelled, or ctx expires.
// It returns nil only when the task body ran to completion.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		if t.State() == interfaces.TaskCancelled {
			return t.reason
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transition moves the task from Queued to next. Only one caller ever wins.
func (t *Task) transition(next interfaces.TaskState) bool {
	return t.state.CompareAndSwap(int32(interfaces.TaskQueued), int32(next))
}

// Pool is a fixed set of worker goroutines draining a shared FIFO queue.
//
// At most one task per owner is pending: Enqueue evicts the owner's queued
// task before adding the new one. Tasks already picked up by a worker run to
// completion.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Task
	pending map[any]*Task

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	wg sync.WaitGroup
}

// New creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		pending: make(map[any]*Task),
	}
	p.cond = sync.NewCond(&p.mu)
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	logrus.WithFields(logrus.Fields{
		"function": "taskpool.New",
		"workers":  workers,
	}).Debug("Task pool started")

	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning returns true while the pool accepts work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Pending returns the number of queued tasks that have not started.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Enqueue schedules fn(payload) on a worker and returns its handle.
//
// A nil owner opts out of eviction. If the pool is closed the returned task is
// already cancelled and Wait reports ErrPoolClosed.
func (p *Pool) Enqueue(owner, payload any, fn interfaces.TaskFunc) interfaces.ITask {
	task := &Task{
		id:      uuid.New(),
		owner:   owner,
		payload: payload,
		fn:      fn,
		done:    make(chan struct{}),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		task.cancel(ErrPoolClosed)
		logrus.WithFields(logrus.Fields{
			"function": "Pool.Enqueue",
			"task_id":  task.ID(),
		}).Warn("Task rejected, pool is closed")
		return task
	}

	if owner != nil {
		if prev, ok := p.pending[owner]; ok {
			if prev.cancel(ErrTaskCancelled) {
				p.removeLocked(prev)
				logrus.WithFields(logrus.Fields{
					"function":     "Pool.Enqueue",
					"evicted_task": prev.ID(),
					"task_id":      task.ID(),
				}).Debug("Evicted pending task for owner")
			}
		}
		p.pending[owner] = task
	}

	p.queue = append(p.queue, task)
	p.cond.Signal()
	return task
}

// Cancel removes a queued task. It returns false if the task already started,
// finished or was cancelled, or does not belong to this pool.
func (p *Pool) Cancel(task interfaces.ITask) bool {
	t, ok := task.(*Task)
	if !ok || t == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !t.cancel(ErrTaskCancelled) {
		return false
	}
	p.removeLocked(t)
	return true
}

// Close stops accepting work, cancels queued tasks and waits for running
// tasks to finish. Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	dropped := len(p.queue)
	for _, t := range p.queue {
		t.cancel(ErrPoolClosed)
	}
	p.queue = nil
	clear(p.pending)
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Pool.Close",
		"dropped":  dropped,
	}).Debug("Task pool stopped")
}

// cancel moves a queued task to Cancelled and releases its waiters.
func (t *Task) cancel(reason error) bool {
	if !t.transition(interfaces.TaskCancelled) {
		return false
	}
	t.reason = reason
	close(t.done)
	return true
}

// removeLocked drops t from the queue and pending map. Caller holds p.mu.
func (p *Pool) removeLocked(t *Task) {
	for i, q := range p.queue {
		if q == t {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	if t.owner != nil && p.pending[t.owner] == t {
		delete(p.pending, t.owner)
	}
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		task := p.next()
		if task == nil {
			return
		}
		p.run(id, task)
	}
}

// next blocks until a task is available or the pool closes.
func (p *Pool) next() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		for len(p.queue) == 0 {
			if !p.running.Load() {
				return nil
			}
			p.cond.Wait()
		}

		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		if task.owner != nil && p.pending[task.owner] == task {
			delete(p.pending, task.owner)
		}
		if task.transition(interfaces.TaskRunning) {
			return task
		}
	}
}

func (p *Pool) run(worker int, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Pool.run",
				"worker":   worker,
				"task_id":  task.ID(),
				"error":    fmt.Sprintf("%v", r),
			}).Error("Task panicked")
		}
		task.state.Store(int32(interfaces.TaskDone))
		close(task.done)
	}()

	task.fn(task.payload)
}
