package testing

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
)

// ErrSimulatedFailure is the default error injected by the failure options.
var ErrSimulatedFailure = errors.New("simulated provider failure")

// ProviderOption configures a SimulatedProvider.
type ProviderOption func(*SimulatedProvider)

// WithLoadError makes Load fail with err.
func WithLoadError(err error) ProviderOption {
	return func(p *SimulatedProvider) { p.loadErr = err }
}

// WithLoadGate makes Load block until gate is closed.
func WithLoadGate(gate <-chan struct{}) ProviderOption {
	return func(p *SimulatedProvider) { p.loadGate = gate }
}

// WithProcessError makes Process fail with err.
func WithProcessError(err error) ProviderOption {
	return func(p *SimulatedProvider) { p.processErr.Store(&err) }
}

// WithNullOutput makes Process return (nil, nil).
func WithNullOutput() ProviderOption {
	return func(p *SimulatedProvider) { p.nullOutput.Store(true) }
}

// WithProcessPanic makes Process panic.
func WithProcessPanic() ProviderOption {
	return func(p *SimulatedProvider) { p.panicProcess.Store(true) }
}

// WithMaxSize makes the provider restrict frames to at most width x height.
func WithMaxSize(width, height uint32) ProviderOption {
	return func(p *SimulatedProvider) {
		p.maxWidth = width
		p.maxHeight = height
	}
}

// SimulatedProvider is an interfaces.IProvider whose output is the luma
// inverse of its input, so published frames are distinguishable from
// pass-through. Every call is counted.
type SimulatedProvider struct {
	name string

	loadErr   error
	loadGate  <-chan struct{}
	maxWidth  uint32
	maxHeight uint32

	processErr   atomic.Pointer[error]
	nullOutput   atomic.Bool
	panicProcess atomic.Bool

	mu         sync.Mutex
	loaded     bool
	output     *video.VideoFrame
	lastParams interfaces.Params

	loadStarted chan struct{}

	loads      atomic.Int32
	unloads    atomic.Int32
	processes  atomic.Int32
	configures atomic.Int32
}

// NewSimulatedProvider creates a provider reporting name.
func NewSimulatedProvider(name string, opts ...ProviderOption) *SimulatedProvider {
	p := &SimulatedProvider{
		name:        name,
		loadStarted: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements interfaces.IProvider.
func (p *SimulatedProvider) Name() string {
	return p.name
}

// Load implements interfaces.IProvider.
func (p *SimulatedProvider) Load() error {
	p.loads.Add(1)
	select {
	case p.loadStarted <- struct{}{}:
	default:
	}

	if p.loadGate != nil {
		<-p.loadGate
	}
	if p.loadErr != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SimulatedProvider.Load",
			"provider": p.name,
			"error":    p.loadErr.Error(),
		}).Debug("Simulated load failure")
		return p.loadErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	return nil
}

// LoadStarted is signalled (at most one pending signal) whenever Load begins.
func (p *SimulatedProvider) LoadStarted() <-chan struct{} {
	return p.loadStarted
}

// Unload implements interfaces.IProvider.
func (p *SimulatedProvider) Unload() {
	p.unloads.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = false
	p.output = nil
}

// Configure implements interfaces.IProvider.
func (p *SimulatedProvider) Configure(params interfaces.Params) error {
	p.configures.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastParams = params
	return nil
}

// Resize implements interfaces.IResizer.
func (p *SimulatedProvider) Resize(width, height uint32) (uint32, uint32) {
	if p.maxWidth > 0 && width > p.maxWidth {
		width = p.maxWidth
	}
	if p.maxHeight > 0 && height > p.maxHeight {
		height = p.maxHeight
	}
	return width, height
}

// Process implements interfaces.IProvider.
func (p *SimulatedProvider) Process(input *video.VideoFrame) (*video.VideoFrame, error) {
	p.processes.Add(1)

	if p.panicProcess.Load() {
		panic("simulated provider panic")
	}
	if errp := p.processErr.Load(); errp != nil && *errp != nil {
		return nil, *errp
	}
	if p.nullOutput.Load() {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return nil, ErrSimulatedFailure
	}
	if p.output == nil {
		p.output = &video.VideoFrame{}
	}
	if err := p.output.CopyFrom(input); err != nil {
		return nil, err
	}
	for i, v := range p.output.Y {
		p.output.Y[i] = 255 - v
	}
	return p.output, nil
}

// SetNullOutput toggles the (nil, nil) result at runtime.
func (p *SimulatedProvider) SetNullOutput(null bool) {
	p.nullOutput.Store(null)
}

// SetProcessError sets or clears (nil) the Process failure at runtime.
func (p *SimulatedProvider) SetProcessError(err error) {
	p.processErr.Store(&err)
}

// Loaded reports whether the provider is between Load and Unload.
func (p *SimulatedProvider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Output returns the buffer handed out by the last successful Process.
func (p *SimulatedProvider) Output() *video.VideoFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// LastParams returns the most recent Configure argument.
func (p *SimulatedProvider) LastParams() interfaces.Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastParams
}

// Loads returns the number of Load calls.
func (p *SimulatedProvider) Loads() int { return int(p.loads.Load()) }

// Unloads returns the number of Unload calls.
func (p *SimulatedProvider) Unloads() int { return int(p.unloads.Load()) }

// Processes returns the number of Process calls.
func (p *SimulatedProvider) Processes() int { return int(p.processes.Load()) }

// Configures returns the number of Configure calls.
func (p *SimulatedProvider) Configures() int { return int(p.configures.Load()) }

// ProviderSet builds registry variants backed by SimulatedProviders and keeps
// every provider it creates so tests can inspect them after the fact.
type ProviderSet struct {
	mu      sync.Mutex
	options map[provider.Kind][]ProviderOption
	probes  map[provider.Kind]error
	created map[provider.Kind][]*SimulatedProvider
}

// NewProviderSet creates an empty set.
func NewProviderSet() *ProviderSet {
	return &ProviderSet{
		options: make(map[provider.Kind][]ProviderOption),
		probes:  make(map[provider.Kind]error),
		created: make(map[provider.Kind][]*SimulatedProvider),
	}
}

// Configure sets the options applied to providers of kind created from now on.
func (s *ProviderSet) Configure(kind provider.Kind, opts ...ProviderOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[kind] = opts
}

// FailProbe makes the availability probe of kind return err.
func (s *ProviderSet) FailProbe(kind provider.Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes[kind] = err
}

// Variants returns one registry variant per kind, in the given order.
func (s *ProviderSet) Variants(kinds ...provider.Kind) []provider.Variant {
	variants := make([]provider.Variant, 0, len(kinds))
	for _, kind := range kinds {
		variants = append(variants, provider.Variant{
			Kind: kind,
			New:  func() interfaces.IProvider { return s.create(kind) },
			Probe: func() error {
				s.mu.Lock()
				defer s.mu.Unlock()
				return s.probes[kind]
			},
		})
	}
	return variants
}

func (s *ProviderSet) create(kind provider.Kind) *SimulatedProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := NewSimulatedProvider(kind.String(), s.options[kind]...)
	s.created[kind] = append(s.created[kind], p)
	return p
}

// Created returns every provider of kind created so far.
func (s *ProviderSet) Created(kind provider.Kind) []*SimulatedProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*SimulatedProvider(nil), s.created[kind]...)
}

// Last returns the most recently created provider of kind, or nil.
func (s *ProviderSet) Last(kind provider.Kind) *SimulatedProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.created[kind]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// TotalLoads sums Load calls across every created provider.
func (s *ProviderSet) TotalLoads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, list := range s.created {
		for _, p := range list {
			n += p.Loads()
		}
	}
	return n
}

var (
	_ interfaces.IProvider = (*SimulatedProvider)(nil)
	_ interfaces.IResizer  = (*SimulatedProvider)(nil)
)
