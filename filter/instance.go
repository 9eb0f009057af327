package filter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/opd-ai/denoisefx/config"
	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/metrics"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
)

// SwitchState tracks the most recently requested switch task.
type SwitchState int32

const (
	// SwitchIdle means no switch was ever requested
	SwitchIdle SwitchState = iota
	// SwitchQueued means the latest task waits for a worker
	SwitchQueued
	// SwitchRunning means the latest task holds the provider lock
	SwitchRunning
	// SwitchDone means the latest task finished or was cancelled
	SwitchDone
)

// String returns the lowercase state name.
func (s SwitchState) String() string {
	switch s {
	case SwitchIdle:
		return "idle"
	case SwitchQueued:
		return "queued"
	case SwitchRunning:
		return "running"
	case SwitchDone:
		return "done"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of the provider state, taken under the lock.
type Snapshot struct {
	Kind   provider.Kind
	Loaded provider.Kind
	Ready  bool
	Switch SwitchState
	Closed bool
}

// Option customizes an Instance.
type Option func(*Instance)

// WithName sets the instance name used in logs. Defaults to a random UUID.
func WithName(name string) Option {
	return func(i *Instance) { i.name = name }
}

// WithRecorder attaches metric instruments.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(i *Instance) { i.recorder = rec }
}

// WithSettings sets the settings applied at construction. Defaults to
// config.Defaults().
func WithSettings(s config.Settings) Option {
	return func(i *Instance) { i.settings = s }
}

// Instance is one placement of the denoising filter in a host pipeline.
//
// The render goroutine calls Tick and Render; configuration changes arrive
// through Update, which may queue a provider switch on the task runner. A
// single mutex guards the provider state and every backend call. The ready
// flag is atomic so Render and Tick can skip cheaply, but every transition
// happens under the mutex and is re-checked there before acting on it.
type Instance struct {
	name     string
	host     interfaces.IHost
	registry *provider.Registry
	runner   interfaces.ITaskRunner
	recorder *metrics.Recorder

	mu          sync.Mutex
	kind        provider.Kind
	loaded      provider.Kind
	backend     interfaces.IProvider
	task        interfaces.ITask
	switchState SwitchState
	switchSeq   uint64
	settings    config.Settings
	closed      bool
	input       *video.VideoFrame
	output      *video.VideoFrame

	ready  atomic.Bool
	uiKind atomic.Int32
	dirty  atomic.Bool
	width  atomic.Uint32
	height atomic.Uint32

	stats counters
}

// New creates an instance bound to host and applies the initial settings,
// which usually queues a switch to the ideal provider. A nil registry means
// the process-wide one from provider.Get.
func New(host interfaces.IHost, registry *provider.Registry, runner interfaces.ITaskRunner, opts ...Option) (*Instance, error) {
	if host == nil {
		return nil, ErrNoHost
	}
	if runner == nil {
		return nil, ErrNoTaskRunner
	}
	if registry == nil {
		r, err := provider.Get()
		if err != nil {
			return nil, fmt.Errorf("resolving provider registry: %w", err)
		}
		registry = r
	}

	input, err := video.NewVideoFrame(1, 1)
	if err != nil {
		return nil, err
	}

	i := &Instance{
		name:     uuid.NewString(),
		host:     host,
		registry: registry,
		runner:   runner,
		kind:     provider.Invalid,
		loaded:   provider.Invalid,
		settings: config.Defaults(),
		input:    input,
		output:   input,
	}
	for _, opt := range opts {
		opt(i)
	}

	// Pass-through needs no backend, so an instance starts ready on Invalid.
	i.ready.Store(true)
	i.dirty.Store(true)
	i.uiKind.Store(int32(provider.Invalid))
	i.width.Store(1)
	i.height.Store(1)

	initial := i.settings
	if err := i.Update(initial); err != nil {
		return nil, err
	}

	i.recorder.InstanceOpened(context.Background())
	logrus.WithFields(logrus.Fields{
		"function": "filter.New",
		"instance": i.name,
		"host":     host.Name(),
		"provider": initial.Provider.String(),
		"strength": initial.Strength.String(),
	}).Info("Created denoising instance")

	return i, nil
}

// Name returns the instance name.
func (i *Instance) Name() string {
	return i.name
}

// Update applies new settings. A changed provider (after resolving
// Automatic) queues an asynchronous switch; other parameters are forwarded to
// the loaded backend immediately and to the next backend once it is loaded.
func (i *Instance) Update(s config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	target := i.registry.Resolve(s.Provider)

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return ErrClosed
	}

	i.settings = s
	i.uiKind.Store(int32(s.Provider))

	// A failed switch leaves loaded != kind; asking for the same kind again retries it.
	retry := i.loaded != i.kind && i.switchState == SwitchDone
	if target != i.kind || retry {
		i.requestSwitchLocked(target)
		return nil
	}

	if i.ready.Load() && i.backend != nil {
		if err := safeConfigure(i.backend, s.Params()); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Instance.Update",
				"instance": i.name,
				"provider": i.kind.String(),
				"error":    err.Error(),
			}).Warn("Provider rejected settings")
		}
	}
	return nil
}

// Settings returns the last applied settings.
func (i *Instance) Settings() config.Settings {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.settings
}

// Properties describes the settings the host should offer for this instance.
func (i *Instance) Properties() []config.Property {
	return config.Properties(i.registry, provider.Kind(i.uiKind.Load()))
}

// Migrate upgrades settings saved by an older version. No format changes exist
// yet, so it leaves values untouched.
func (i *Instance) Migrate(values map[string]any, version uint64) {
	logrus.WithFields(logrus.Fields{
		"function": "Instance.Migrate",
		"instance": i.name,
		"version":  version,
		"keys":     len(values),
	}).Debug("No settings migration required")
}

// Width returns the last negotiated width, at least 1.
func (i *Instance) Width() uint32 {
	return max(i.width.Load(), 1)
}

// Height returns the last negotiated height, at least 1.
func (i *Instance) Height() uint32 {
	return max(i.height.Load(), 1)
}

// Ready reports whether a backend (or pass-through) is ready. The value is
// advisory; it may change right after the call returns.
func (i *Instance) Ready() bool {
	return i.ready.Load()
}

// Snapshot returns the provider state as seen under the lock.
func (i *Instance) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Snapshot{
		Kind:   i.kind,
		Loaded: i.loaded,
		Ready:  i.ready.Load(),
		Switch: i.switchState,
		Closed: i.closed,
	}
}

// Stats returns the instance counters.
func (i *Instance) Stats() Stats {
	return i.stats.snapshot()
}

// WaitForSwitch blocks until the most recently requested switch task has
// finished or ctx expires. It returns immediately when no switch was requested.
func (i *Instance) WaitForSwitch(ctx context.Context) error {
	i.mu.Lock()
	task := i.task
	i.mu.Unlock()

	if task == nil {
		return nil
	}
	return task.Wait(ctx)
}

// Close cancels a queued switch, unloads the loaded backend synchronously and
// releases the buffers. A switch task that is already running finishes first
// because Close waits for the provider lock. Calling Close more than once is
// safe.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.ready.Store(false)

	if i.task != nil && i.switchState == SwitchQueued {
		if i.runner.Cancel(i.task) {
			i.switchState = SwitchDone
		}
	}

	unloaded := i.loaded
	if i.backend != nil {
		i.unloadLocked()
	}
	i.input = nil
	i.output = nil

	i.recorder.InstanceClosed(context.Background())
	logrus.WithFields(logrus.Fields{
		"function": "Instance.Close",
		"instance": i.name,
		"unloaded": unloaded.String(),
	}).Info("Destroyed denoising instance")

	return nil
}
