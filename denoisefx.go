package denoisefx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/denoisefx/backend"
	"github.com/opd-ai/denoisefx/config"
	"github.com/opd-ai/denoisefx/filter"
	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/metrics"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/opd-ai/denoisefx/taskpool"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnloaded is returned by NewInstance after Unload.
	ErrUnloaded = errors.New("plugin unloaded")
	// ErrRegistryUnavailable is returned by Load when the backends could not be registered.
	ErrRegistryUnavailable = errors.New("provider registry unavailable")
)

// Plugin owns the process-wide state shared by all filter instances: the
// provider registry, the task pool running provider switches and the metric
// instruments.
type Plugin struct {
	mu       sync.Mutex
	cfg      *config.PluginConfig
	registry *provider.Registry
	pool     *taskpool.Pool
	recorder *metrics.Recorder
	defaults config.Settings
	unloaded bool
}

// Load configures logging, registers and probes the backends and starts the
// task pool. A nil cfg means config.DefaultPluginConfig.
func Load(cfg *config.PluginConfig) (*Plugin, error) {
	if cfg == nil {
		cfg = config.DefaultPluginConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.ConfigureLogging(cfg); err != nil {
		return nil, err
	}

	defaults, err := cfg.DefaultSettings()
	if err != nil {
		return nil, err
	}
	disabled, err := cfg.DisabledKinds()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	priority, err := cfg.PriorityKinds()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}

	opts := []provider.Option{provider.WithDisabled(disabled...)}
	if len(priority) > 0 {
		opts = append(opts, provider.WithPriority(priority...))
	}
	registry := provider.Initialize(backend.Variants(), opts...)
	if registry == nil {
		return nil, ErrRegistryUnavailable
	}

	recorder, err := metrics.Default()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "denoisefx.Load",
			"error":    err.Error(),
		}).Warn("Metrics disabled")
		recorder = nil
	}

	p := &Plugin{
		cfg:      cfg,
		registry: registry,
		pool:     taskpool.New(cfg.EffectiveWorkers()),
		recorder: recorder,
		defaults: defaults,
	}

	logrus.WithFields(logrus.Fields{
		"function":  "denoisefx.Load",
		"workers":   p.pool.Workers(),
		"enabled":   registry.Enabled(),
		"ideal":     registry.FindIdealProvider().String(),
		"filter_id": registry.Info().ID,
	}).Info("Denoising plugin loaded")

	return p, nil
}

// NewInstance creates a filter instance for host with the configured default
// settings. opts are applied after the defaults and may override them.
func (p *Plugin) NewInstance(host interfaces.IHost, opts ...filter.Option) (*filter.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unloaded {
		return nil, ErrUnloaded
	}

	all := make([]filter.Option, 0, len(opts)+2)
	all = append(all, filter.WithSettings(p.defaults), filter.WithRecorder(p.recorder))
	all = append(all, opts...)
	return filter.New(host, p.registry, p.pool, all...)
}

// Defaults returns the settings new instances start with.
func (p *Plugin) Defaults() config.Settings {
	return p.defaults
}

// Registry returns the provider registry.
func (p *Plugin) Registry() *provider.Registry {
	return p.registry
}

// Info returns the registration metadata handed to the host.
func (p *Plugin) Info() provider.FilterInfo {
	return p.registry.Info()
}

// Properties returns the property descriptors for an instance with the given
// provider selected.
func (p *Plugin) Properties(selected provider.Kind) []config.Property {
	return config.Properties(p.registry, selected)
}

// Unload stops the task pool and tears down the registry. Instances must be
// closed before. Calling Unload more than once is a no-op.
func (p *Plugin) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unloaded {
		return
	}
	p.unloaded = true
	p.pool.Close()
	provider.Finalize()

	logrus.WithFields(logrus.Fields{
		"function": "Plugin.Unload",
	}).Info("Denoising plugin unloaded")
}
