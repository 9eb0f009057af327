package provider

import (
	"errors"
	"testing"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider implements interfaces.IProvider for registry tests
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string                      { return s.name }
func (s *stubProvider) Load() error                       { return nil }
func (s *stubProvider) Unload()                           {}
func (s *stubProvider) Configure(interfaces.Params) error { return nil }
func (s *stubProvider) Process(in *video.VideoFrame) (*video.VideoFrame, error) {
	return in, nil
}

func variant(kind Kind, probe ProbeFunc) Variant {
	return Variant{
		Kind:  kind,
		New:   func() interfaces.IProvider { return &stubProvider{name: kind.String()} },
		Probe: probe,
	}
}

func failingProbe() error { return errors.New("driver missing") }

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
		key  string
	}{
		{Invalid, "N/A", "none"},
		{Automatic, "Automatic", "automatic"},
		{Spatial, "Spatial Denoising", "spatial"},
		{Temporal, "Temporal Denoising", "temporal"},
		{Kind(42), "Kind(42)", "kind42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.key, tt.kind.Key())
		})
	}

	assert.False(t, Invalid.IsConcrete())
	assert.False(t, Automatic.IsConcrete())
	assert.True(t, Spatial.IsConcrete())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Spatial ")
	require.NoError(t, err)
	assert.Equal(t, Spatial, k)

	k, err = ParseKind("temporal denoising")
	require.NoError(t, err)
	assert.Equal(t, Temporal, k)

	_, err = ParseKind("nvidia")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_InitializeProbesVariants(t *testing.T) {
	reg := NewRegistry([]Variant{
		variant(Spatial, failingProbe),
		variant(Temporal, nil),
	})
	reg.Initialize()
	defer reg.Finalize()

	assert.True(t, reg.Enabled())
	assert.False(t, reg.IsAvailable(Spatial))
	assert.True(t, reg.IsAvailable(Temporal))
	assert.ErrorIs(t, reg.ProbeError(Spatial), ErrProviderUnavailable)
	assert.NoError(t, reg.ProbeError(Temporal))
	assert.Equal(t, Temporal, reg.FindIdealProvider())
}

func TestRegistry_InitializeIsIdempotent(t *testing.T) {
	calls := 0
	reg := NewRegistry([]Variant{variant(Spatial, func() error {
		calls++
		return nil
	})})

	reg.Initialize()
	reg.Initialize()
	assert.Equal(t, 1, calls)
}

func TestRegistry_ProbePanicDegradesAvailability(t *testing.T) {
	reg := NewRegistry([]Variant{
		variant(Spatial, func() error { panic("segfault in driver") }),
	})

	assert.NotPanics(t, reg.Initialize)
	assert.False(t, reg.IsAvailable(Spatial))
	assert.False(t, reg.Enabled(), "no provider available must disable the filter")
	assert.Equal(t, Automatic, reg.FindIdealProvider())
	assert.Equal(t, Invalid, reg.Resolve(Automatic))
}

func TestRegistry_PriorityOrder(t *testing.T) {
	variants := []Variant{variant(Spatial, nil), variant(Temporal, nil)}

	reg := NewRegistry(variants)
	reg.Initialize()
	assert.Equal(t, []Kind{Spatial, Temporal}, reg.Kinds())
	assert.Equal(t, Spatial, reg.FindIdealProvider())

	reg = NewRegistry(variants, WithPriority(Temporal, Kind(9), Temporal))
	reg.Initialize()
	assert.Equal(t, []Kind{Temporal, Spatial}, reg.Kinds())
	assert.Equal(t, Temporal, reg.FindIdealProvider())
}

func TestRegistry_Disabled(t *testing.T) {
	reg := NewRegistry([]Variant{variant(Spatial, nil), variant(Temporal, nil)}, WithDisabled(Spatial))
	reg.Initialize()

	assert.False(t, reg.IsAvailable(Spatial))
	assert.ErrorIs(t, reg.ProbeError(Spatial), ErrProviderDisabled)
	assert.Equal(t, Temporal, reg.Resolve(Automatic))

	_, err := reg.New(Spatial)
	assert.ErrorIs(t, err, ErrProviderDisabled)
}

func TestRegistry_New(t *testing.T) {
	reg := NewRegistry([]Variant{variant(Spatial, nil), variant(Temporal, failingProbe)})
	reg.Initialize()

	p, err := reg.New(Spatial)
	require.NoError(t, err)
	assert.Equal(t, "Spatial Denoising", p.Name())

	_, err = reg.New(Temporal)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = reg.New(Invalid)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_IgnoresInvalidVariants(t *testing.T) {
	reg := NewRegistry([]Variant{
		{Kind: Automatic, New: func() interfaces.IProvider { return &stubProvider{} }},
		{Kind: Spatial},
	})
	reg.Initialize()

	assert.Empty(t, reg.Kinds())
	assert.False(t, reg.Enabled())
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry([]Variant{variant(Temporal, nil)})
	reg.Initialize()

	assert.Equal(t, Temporal, reg.Resolve(Automatic))
	assert.Equal(t, Spatial, reg.Resolve(Spatial), "explicit requests are not second-guessed")
	assert.Equal(t, Invalid, reg.Resolve(Invalid))
}

func TestRegistry_FinalizeSafeWithoutInitialize(t *testing.T) {
	reg := NewRegistry(nil)
	assert.NotPanics(t, reg.Finalize)
	assert.False(t, reg.IsAvailable(Spatial))
	assert.False(t, reg.Enabled())
}

func TestRegistry_Info(t *testing.T) {
	reg := NewRegistry(nil)
	info := reg.Info()
	assert.Equal(t, "denoisefx-filter-video-denoising", info.ID)
	assert.Equal(t, []string{"video"}, info.OutputFlags)

	info.OutputFlags[0] = "audio"
	assert.Equal(t, []string{"video"}, reg.Info().OutputFlags, "Info must return a copy")

	custom := NewRegistry(nil, WithFilterInfo(FilterInfo{ID: "custom"}))
	assert.Equal(t, "custom", custom.Info().ID)
}

func TestGlobalLifecycle(t *testing.T) {
	Finalize()
	t.Cleanup(Finalize)

	_, err := Get()
	assert.ErrorIs(t, err, ErrNotInitialized)

	first := Initialize([]Variant{variant(Spatial, nil)})
	require.NotNil(t, first)
	second := Initialize([]Variant{variant(Temporal, nil)})
	assert.Same(t, first, second, "Initialize must not re-create the registry")

	got, err := Get()
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.True(t, got.IsAvailable(Spatial))

	Finalize()
	Finalize()
	_, err = Get()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestGlobalInitialize_WarnsOnIgnoredOptions(t *testing.T) {
	Finalize()
	t.Cleanup(Finalize)

	first := Initialize([]Variant{variant(Spatial, nil), variant(Temporal, nil)})
	require.NotNil(t, first)

	hook := test.NewGlobal()
	defer hook.Reset()

	second := Initialize([]Variant{variant(Temporal, nil)}, WithDisabled(Spatial))
	assert.Same(t, first, second)
	assert.True(t, second.IsAvailable(Spatial), "options of a later call are not applied")

	var warnings []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["function"] == "provider.Initialize" {
			warnings = append(warnings, e)
		}
	}
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Data["variants"])
	assert.Equal(t, 1, warnings[0].Data["options"])
}
