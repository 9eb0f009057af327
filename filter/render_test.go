package filter

import (
	"context"
	"testing"

	"github.com/opd-ai/denoisefx/config"
	"github.com/opd-ai/denoisefx/metrics"
	"github.com/opd-ai/denoisefx/provider"
	sim "github.com/opd-ai/denoisefx/testing"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func draws(log []sim.DrawRecord) []sim.DrawRecord {
	var out []sim.DrawRecord
	for _, r := range log {
		if !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}

func TestRender_PassThroughPublishesInput(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(*sim.ProviderSet)
		settings config.Settings
	}{
		{
			name:     "explicit pass-through",
			settings: settingsFor(provider.Invalid),
		},
		{
			name: "automatic with nothing available",
			prepare: func(set *sim.ProviderSet) {
				set.FailProbe(provider.Spatial, sim.ErrSimulatedFailure)
			},
			settings: config.Defaults(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.prepare, provider.Spatial)
			inst := f.newInstance(t, tt.settings)
			require.Equal(t, provider.Invalid, inst.Snapshot().Kind)

			inst.Tick()
			inst.Render()

			last, ok := f.host.LastDraw()
			require.True(t, ok)
			require.False(t, last.Skipped)
			assert.Equal(t, f.host.SourceFrame().Checksum(), last.Checksum)
			assert.Equal(t, uint32(64), last.Width)
			assert.Equal(t, uint32(48), last.Height)
		})
	}
}

func TestRender_NotReadyBypasses(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, func(set *sim.ProviderSet) {
		set.Configure(provider.Spatial, sim.WithLoadGate(gate))
	}, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Spatial))
	defer close(gate)

	inst.Tick()
	inst.Render()

	last, ok := f.host.LastDraw()
	require.True(t, ok)
	assert.True(t, last.Skipped)
	assert.Equal(t, uint64(1), inst.Stats().Bypassed)
}

func TestRender_ProcessesThroughProvider(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Spatial))
	waitSwitch(t, inst)

	inst.Tick()
	inst.Render()

	src := f.host.SourceFrame()
	last, ok := f.host.LastDraw()
	require.True(t, ok)
	require.False(t, last.Skipped)
	assert.Equal(t, 255-src.Y[10], last.Frame.Y[10], "simulated provider inverts luma")
	assert.Same(t, last.Frame, f.set.Last(provider.Spatial).Output())
}

func TestRender_NullOutputLogsOnceAndBypasses(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Spatial))
	waitSwitch(t, inst)
	spatial := f.set.Last(provider.Spatial)

	inst.Tick()
	inst.Render()
	require.Len(t, draws(f.host.GetDrawLog()), 1)
	published := f.host.GetDrawLog()[0]

	spatial.SetNullOutput(true)
	hook := test.NewGlobal()
	defer hook.Reset()

	inst.Tick()
	inst.Render()

	log := f.host.GetDrawLog()
	require.Len(t, draws(log), 1, "nothing is published for a nil result")
	assert.True(t, log[len(log)-1].Skipped)
	assert.Equal(t, published.Checksum, draws(log)[0].Checksum)

	var errs []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errs = append(errs, e)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, provider.Spatial.String())
	assert.Equal(t, spatial.Name(), errs[0].Data["provider_name"])
	assert.Equal(t, uint64(1), inst.Stats().NullOutputs)

	// Still dirty, so the next render processes again.
	spatial.SetNullOutput(false)
	inst.Render()
	assert.Len(t, draws(f.host.GetDrawLog()), 2)
}

func TestRender_CachedOutputIsRepublished(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Spatial))
	waitSwitch(t, inst)
	spatial := f.set.Last(provider.Spatial)

	inst.Tick()
	inst.Render()
	inst.Render()

	published := draws(f.host.GetDrawLog())
	require.Len(t, published, 2)
	assert.Equal(t, published[0].Checksum, published[1].Checksum)
	assert.Equal(t, 1, spatial.Processes())

	stats := inst.Stats()
	assert.Equal(t, uint64(1), stats.Processed)
	assert.Equal(t, uint64(1), stats.Cached)

	inst.Tick()
	inst.Render()
	assert.Equal(t, 2, spatial.Processes())
}

func TestRender_CaptureRefusedBypassesSilently(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Invalid))
	f.host.SetRefuseCapture(true)

	hook := test.NewGlobal()
	defer hook.Reset()

	inst.Tick()
	inst.Render()

	last, ok := f.host.LastDraw()
	require.True(t, ok)
	assert.True(t, last.Skipped)
	assert.Equal(t, uint64(1), inst.Stats().CaptureRefusals)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level, e.Message)
	}
}

func TestRender_ProcessFailuresBypass(t *testing.T) {
	tests := []struct {
		name string
		opt  sim.ProviderOption
	}{
		{"error", sim.WithProcessError(sim.ErrSimulatedFailure)},
		{"panic", sim.WithProcessPanic()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(set *sim.ProviderSet) {
				set.Configure(provider.Spatial, tt.opt)
			}, provider.Spatial)
			inst := f.newInstance(t, settingsFor(provider.Spatial))
			waitSwitch(t, inst)

			inst.Tick()
			assert.NotPanics(t, inst.Render)

			last, ok := f.host.LastDraw()
			require.True(t, ok)
			assert.True(t, last.Skipped)
			assert.Equal(t, uint64(1), inst.Stats().ProcessErrors)
		})
	}
}

func TestRender_UsesParentWithoutTarget(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Invalid))

	f.host.ClearTarget()
	inst.Tick()
	inst.Render()
	last, ok := f.host.LastDraw()
	require.True(t, ok)
	assert.True(t, last.Skipped, "no target and no parent")

	f.host.SetParent(sim.NewSimulatedSource("parent", 32, 16))
	inst.Tick()
	inst.Render()
	last, ok = f.host.LastDraw()
	require.True(t, ok)
	require.False(t, last.Skipped)
	assert.Equal(t, uint32(32), last.Width)
	assert.Equal(t, uint32(16), last.Height)
}

func TestRender_EmptyUpstreamBypasses(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Invalid))
	f.host.TargetSource().SetSize(0, 48)

	inst.Tick()
	inst.Render()

	last, ok := f.host.LastDraw()
	require.True(t, ok)
	assert.True(t, last.Skipped)
}

func TestTick_ProviderRestrictsSize(t *testing.T) {
	f := newFixture(t, func(set *sim.ProviderSet) {
		set.Configure(provider.Spatial, sim.WithMaxSize(32, 24))
	}, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Spatial))
	waitSwitch(t, inst)

	inst.Tick()
	assert.Equal(t, uint32(32), inst.Width())
	assert.Equal(t, uint32(24), inst.Height())

	inst.Render()
	last, ok := f.host.LastDraw()
	require.True(t, ok)
	require.False(t, last.Skipped)
	assert.Equal(t, uint32(32), last.Width)
	assert.Equal(t, uint32(32), last.Frame.Width)
}

func TestRender_SwitchInvalidatesCachedOutput(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial, provider.Temporal)
	inst := f.newInstance(t, settingsFor(provider.Spatial))
	waitSwitch(t, inst)

	inst.Tick()
	inst.Render()

	require.NoError(t, inst.Update(settingsFor(provider.Temporal)))
	waitSwitch(t, inst)

	// No Tick: the output of the unloaded backend must not be republished.
	inst.Render()
	temporal := f.set.Last(provider.Temporal)
	assert.Equal(t, 1, temporal.Processes())
	last, ok := f.host.LastDraw()
	require.True(t, ok)
	assert.Same(t, temporal.Output(), last.Frame)
}

func TestRender_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	rec, err := metrics.NewRecorder(mp.Meter(metrics.InstrumentationName))
	require.NoError(t, err)

	f := newFixture(t, nil, provider.Spatial)
	inst := f.newInstance(t, settingsFor(provider.Spatial), WithRecorder(rec))
	waitSwitch(t, inst)

	inst.Tick()
	inst.Render()
	inst.Render()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	var switches int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "denoisefx.frames":
					v, _ := dp.Attributes.Value(attribute.Key("outcome"))
					counts[v.AsString()] += dp.Value
				case "denoisefx.switches":
					switches += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), counts[metrics.OutcomeProcessed])
	assert.Equal(t, int64(1), counts[metrics.OutcomeCached])
	assert.Equal(t, int64(1), switches)
}

// TestScenario_AutomaticSelectionAndCaching walks through instance creation
// with one available backend, size negotiation, a processed frame and a
// cached republish.
func TestScenario_AutomaticSelectionAndCaching(t *testing.T) {
	f := newFixture(t, nil, provider.Spatial)
	f.host = sim.NewSimulatedHost("scene", 1920, 1080)

	inst := f.newInstance(t, config.Defaults())
	waitSwitch(t, inst)
	require.Equal(t, provider.Spatial, inst.Snapshot().Kind)
	backend := f.set.Last(provider.Spatial)

	inst.Tick()
	assert.Equal(t, uint32(1920), inst.Width())
	assert.Equal(t, uint32(1080), inst.Height())

	inst.Render()
	assert.Equal(t, 1, backend.Processes())
	first, ok := f.host.LastDraw()
	require.True(t, ok)
	require.False(t, first.Skipped)

	inst.Render()
	assert.Equal(t, 1, backend.Processes())
	second, ok := f.host.LastDraw()
	require.True(t, ok)
	require.False(t, second.Skipped)
	assert.Equal(t, first.Checksum, second.Checksum)
	assert.Equal(t, 1, f.host.GetTypedStats().Captures)
}
