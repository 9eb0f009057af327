package filter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/denoisefx/config"
	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/opd-ai/denoisefx/taskpool"
	sim "github.com/opd-ai/denoisefx/testing"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type fixture struct {
	set      *sim.ProviderSet
	registry *provider.Registry
	pool     *taskpool.Pool
	host     *sim.SimulatedHost
}

// newFixture registers simulated providers for kinds (all available unless
// the caller fails their probes before Initialize through prepare).
func newFixture(t *testing.T, prepare func(*sim.ProviderSet), kinds ...provider.Kind) *fixture {
	t.Helper()
	set := sim.NewProviderSet()
	if prepare != nil {
		prepare(set)
	}

	registry := provider.NewRegistry(set.Variants(kinds...))
	registry.Initialize()
	t.Cleanup(registry.Finalize)

	pool := taskpool.New(1)
	t.Cleanup(pool.Close)

	return &fixture{
		set:      set,
		registry: registry,
		pool:     pool,
		host:     sim.NewSimulatedHost("scene", 64, 48),
	}
}

func (f *fixture) newInstance(t *testing.T, s config.Settings, opts ...Option) *Instance {
	t.Helper()
	opts = append([]Option{WithSettings(s), WithName(t.Name())}, opts...)
	inst, err := New(f.host, f.registry, f.pool, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Close() })
	return inst
}

func settingsFor(kind provider.Kind) config.Settings {
	s := config.Defaults()
	s.Provider = kind
	return s
}

func waitSwitch(t *testing.T, inst *Instance) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, inst.WaitForSwitch(ctx))
}

// blockPool occupies the pool's single worker until the returned func is called.
func blockPool(t *testing.T, pool *taskpool.Pool) func() {
	t.Helper()
	release := make(chan struct{})
	task := pool.Enqueue(nil, nil, func(any) { <-release })
	require.Eventually(t, func() bool {
		return task.State() == interfaces.TaskRunning
	}, testTimeout, time.Millisecond)

	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	return unblock
}

func waitLoadStarted(t *testing.T, p *sim.SimulatedProvider) {
	t.Helper()
	select {
	case <-p.LoadStarted():
	case <-time.After(testTimeout):
		t.Fatal("provider load did not start")
	}
}

// lastProvider waits until the registry created a provider of kind.
func (f *fixture) lastProvider(t *testing.T, kind provider.Kind) *sim.SimulatedProvider {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.set.Last(kind) != nil
	}, testTimeout, time.Millisecond)
	return f.set.Last(kind)
}
