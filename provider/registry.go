package provider

import (
	"fmt"
	"sync"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/sirupsen/logrus"
)

// Constructor creates a fresh, unloaded backend.
type Constructor func() interfaces.IProvider

// ProbeFunc checks whether a backend can run on this machine.
type ProbeFunc func() error

// Variant binds a Kind to its constructor and availability probe.
type Variant struct {
	Kind  Kind
	New   Constructor
	Probe ProbeFunc // nil means always available
}

// FilterInfo is the registration metadata the plugin shim hands to the host.
type FilterInfo struct {
	ID                string
	Name              string
	Type              string
	OutputFlags       []string
	HelpURL           string
	ResolutionEnabled bool
}

// DefaultFilterInfo returns the registration metadata of the denoising filter.
func DefaultFilterInfo() FilterInfo {
	return FilterInfo{
		ID:                "denoisefx-filter-video-denoising",
		Name:              "Denoising",
		Type:              "filter",
		OutputFlags:       []string{"video"},
		HelpURL:           "https://github.com/opd-ai/denoisefx/wiki/Filter-Denoising",
		ResolutionEnabled: true,
	}
}

// Option customizes a Registry.
type Option func(*Registry)

// WithPriority overrides the order used by FindIdealProvider. Kinds without a
// registered variant are ignored; registered kinds missing from the list are
// appended in registration order.
func WithPriority(kinds ...Kind) Option {
	return func(r *Registry) {
		r.priority = append([]Kind(nil), kinds...)
	}
}

// WithDisabled marks kinds as unavailable regardless of their probe.
func WithDisabled(kinds ...Kind) Option {
	return func(r *Registry) {
		for _, k := range kinds {
			r.disabled[k] = true
		}
	}
}

// WithFilterInfo replaces the registration metadata.
func WithFilterInfo(info FilterInfo) Option {
	return func(r *Registry) {
		r.info = info
	}
}

// Registry detects which backends are usable and creates them on demand.
// It is safe for concurrent use; after Initialize it is effectively read-only.
type Registry struct {
	mu sync.RWMutex

	variants  map[Kind]Variant
	priority  []Kind
	disabled  map[Kind]bool
	available map[Kind]bool
	probeErrs map[Kind]error

	info        FilterInfo
	initialized bool
	enabled     bool
}

// NewRegistry creates a registry for the given variants. Registration order is
// the default priority order.
func NewRegistry(variants []Variant, opts ...Option) *Registry {
	r := &Registry{
		variants:  make(map[Kind]Variant, len(variants)),
		disabled:  make(map[Kind]bool),
		available: make(map[Kind]bool),
		probeErrs: make(map[Kind]error),
		info:      DefaultFilterInfo(),
	}

	var order []Kind
	for _, v := range variants {
		if !v.Kind.IsConcrete() || v.New == nil {
			logrus.WithFields(logrus.Fields{
				"function": "NewRegistry",
				"kind":     v.Kind.String(),
			}).Warn("Ignoring invalid provider variant")
			continue
		}
		if _, dup := r.variants[v.Kind]; !dup {
			order = append(order, v.Kind)
		}
		r.variants[v.Kind] = v
	}

	for _, opt := range opts {
		opt(r)
	}
	r.priority = r.resolvePriority(order)

	return r
}

// resolvePriority filters the configured priority to registered kinds and
// appends the remaining registered kinds.
func (r *Registry) resolvePriority(order []Kind) []Kind {
	seen := make(map[Kind]bool, len(order))
	var out []Kind
	for _, k := range r.priority {
		if _, ok := r.variants[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range order {
		if !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	return out
}

// Initialize probes every registered variant and records its availability.
// It is idempotent and never panics: a failing or panicking probe only marks
// that kind unavailable. If nothing is available the filter type is disabled.
func (r *Registry) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return
	}
	r.initialized = true

	anyAvailable := false
	for _, k := range r.priority {
		err := r.probe(k)
		r.available[k] = err == nil
		if err != nil {
			r.probeErrs[k] = err
			logrus.WithFields(logrus.Fields{
				"function": "Registry.Initialize",
				"provider": k.String(),
				"error":    err.Error(),
			}).Warn("Failed to make provider available")
			continue
		}
		anyAvailable = true
		logrus.WithFields(logrus.Fields{
			"function": "Registry.Initialize",
			"provider": k.String(),
		}).Info("Provider available")
	}

	r.enabled = anyAvailable
	if !anyAvailable {
		logrus.WithFields(logrus.Fields{
			"function":  "Registry.Initialize",
			"providers": len(r.priority),
		}).Error("All supported providers failed to initialize, disabling effect")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Registry.Initialize",
		"filter_id": r.info.ID,
		"ideal":     r.findIdealLocked().String(),
	}).Info("Registered denoising filter")
}

// probe runs the availability check for k with panics converted to errors.
func (r *Registry) probe(k Kind) (err error) {
	if r.disabled[k] {
		return ErrProviderDisabled
	}
	v := r.variants[k]
	if v.Probe == nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: probe panicked: %v", ErrProviderUnavailable, rec)
		}
	}()
	if perr := v.Probe(); perr != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, perr)
	}
	return nil
}

// Finalize releases all probe state. It is safe to call on a registry that was
// never or only partially initialized.
func (r *Registry) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.available)
	clear(r.probeErrs)
	r.initialized = false
	r.enabled = false

	logrus.WithFields(logrus.Fields{
		"function": "Registry.Finalize",
	}).Debug("Provider registry finalized")
}

// IsAvailable reports whether kind passed its probe.
func (r *Registry) IsAvailable(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available[kind]
}

// ProbeError returns why kind is unavailable, or nil.
func (r *Registry) ProbeError(kind Kind) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.probeErrs[kind]
}

// FindIdealProvider returns the first available kind in priority order, or
// Automatic when none is usable. Callers treat Automatic as a no-op filter.
func (r *Registry) FindIdealProvider() Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findIdealLocked()
}

func (r *Registry) findIdealLocked() Kind {
	for _, k := range r.priority {
		if r.available[k] {
			return k
		}
	}
	return Automatic
}

// Resolve maps a requested kind to the kind an instance should switch to.
// Automatic resolves through FindIdealProvider; when nothing is usable the
// result is Invalid, i.e. pass-through.
func (r *Registry) Resolve(requested Kind) Kind {
	if requested != Automatic {
		return requested
	}
	if ideal := r.FindIdealProvider(); ideal != Automatic {
		return ideal
	}
	return Invalid
}

// New creates an unloaded backend for kind.
func (r *Registry) New(kind Kind) (interfaces.IProvider, error) {
	r.mu.RLock()
	v, ok := r.variants[kind]
	available := r.available[kind]
	probeErr := r.probeErrs[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
	if !available {
		if probeErr != nil {
			return nil, fmt.Errorf("%s: %w", kind, probeErr)
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, kind)
	}
	return v.New(), nil
}

// Kinds returns the registered kinds in priority order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Kind(nil), r.priority...)
}

// Enabled reports whether the filter type should be offered to users.
func (r *Registry) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Info returns the registration metadata.
func (r *Registry) Info() FilterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := r.info
	info.OutputFlags = append([]string(nil), r.info.OutputFlags...)
	return info
}
