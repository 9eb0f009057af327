package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedProvider_Lifecycle(t *testing.T) {
	p := NewSimulatedProvider("sim")
	in := NoisyFrame(8, 8, 1)

	_, err := p.Process(in)
	assert.ErrorIs(t, err, ErrSimulatedFailure, "process before load")

	require.NoError(t, p.Load())
	assert.True(t, p.Loaded())

	out, err := p.Process(in)
	require.NoError(t, err)
	assert.Equal(t, 255-in.Y[3], out.Y[3])
	assert.Equal(t, in.U, out.U)

	require.NoError(t, p.Configure(interfaces.Params{interfaces.ParamStrength: 0}))
	assert.Equal(t, 0, p.LastParams().Int(interfaces.ParamStrength, -1))

	p.Unload()
	assert.False(t, p.Loaded())
	assert.Equal(t, 1, p.Loads())
	assert.Equal(t, 1, p.Unloads())
	assert.Equal(t, 2, p.Processes())
	assert.Equal(t, 1, p.Configures())
}

func TestSimulatedProvider_FailureInjection(t *testing.T) {
	boom := errors.New("boom")

	p := NewSimulatedProvider("sim", WithLoadError(boom))
	assert.ErrorIs(t, p.Load(), boom)
	assert.False(t, p.Loaded())

	p = NewSimulatedProvider("sim", WithNullOutput())
	require.NoError(t, p.Load())
	out, err := p.Process(NoisyFrame(4, 4, 1))
	assert.NoError(t, err)
	assert.Nil(t, out)

	p.SetNullOutput(false)
	p.SetProcessError(boom)
	_, err = p.Process(NoisyFrame(4, 4, 1))
	assert.ErrorIs(t, err, boom)

	p.SetProcessError(nil)
	out, err = p.Process(NoisyFrame(4, 4, 1))
	assert.NoError(t, err)
	assert.NotNil(t, out)

	p = NewSimulatedProvider("sim", WithProcessPanic())
	assert.Panics(t, func() { _, _ = p.Process(NoisyFrame(4, 4, 1)) })
}

func TestSimulatedProvider_LoadGate(t *testing.T) {
	gate := make(chan struct{})
	p := NewSimulatedProvider("sim", WithLoadGate(gate))

	done := make(chan error, 1)
	go func() { done <- p.Load() }()

	select {
	case <-p.LoadStarted():
	case <-time.After(time.Second):
		t.Fatal("load did not start")
	}
	assert.False(t, p.Loaded())

	close(gate)
	require.NoError(t, <-done)
	assert.True(t, p.Loaded())
}

func TestSimulatedProvider_Resize(t *testing.T) {
	p := NewSimulatedProvider("sim", WithMaxSize(640, 480))
	w, h := p.Resize(1920, 1080)
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)

	w, h = NewSimulatedProvider("sim").Resize(1920, 1080)
	assert.Equal(t, uint32(1920), w)
	assert.Equal(t, uint32(1080), h)
}

func TestProviderSet(t *testing.T) {
	set := NewProviderSet()
	set.FailProbe(provider.Temporal, ErrSimulatedFailure)
	set.Configure(provider.Spatial, WithNullOutput())

	registry := provider.NewRegistry(set.Variants(provider.Spatial, provider.Temporal))
	registry.Initialize()
	defer registry.Finalize()

	assert.True(t, registry.IsAvailable(provider.Spatial))
	assert.False(t, registry.IsAvailable(provider.Temporal))

	p, err := registry.New(provider.Spatial)
	require.NoError(t, err)
	assert.Equal(t, "Spatial Denoising", p.Name())
	require.NoError(t, p.Load())

	assert.Same(t, p, set.Last(provider.Spatial))
	assert.Len(t, set.Created(provider.Spatial), 1)
	assert.Nil(t, set.Last(provider.Temporal))
	assert.Equal(t, 1, set.TotalLoads())

	out, err := p.Process(NoisyFrame(4, 4, 1))
	assert.NoError(t, err)
	assert.Nil(t, out)
}
