package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/opd-ai/denoisefx"
	"github.com/opd-ai/denoisefx/config"
	"github.com/opd-ai/denoisefx/filter"
	"github.com/opd-ai/denoisefx/provider"
	sim "github.com/opd-ai/denoisefx/testing"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// SwitchEvent records a provider change requested by the simulation.
type SwitchEvent struct {
	Frame int
	To    provider.Kind
}

// Summary is the result of a simulation run.
type Summary struct {
	Frames   int
	Renders  int
	Elapsed  time.Duration
	Final    filter.Snapshot
	Stats    filter.Stats
	Host     sim.HostStats
	Switches []SwitchEvent

	// FramesByOutcome counts Render calls keyed by "provider/outcome".
	FramesByOutcome map[string]int64
	// SwitchResults counts finished switch tasks keyed by result.
	SwitchResults map[string]int64
	// ProcessSeconds is the mean backend processing time per provider.
	ProcessSeconds map[string]float64
}

// runSimulation loads the plugin, feeds cfg.frames noisy frames through one
// instance and returns what the host and the meter observed.
func runSimulation(ctx context.Context, cfg *CLIConfig) (*Summary, error) {
	sequence, err := parseSequence(cfg.sequence)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "runSimulation",
				"error":    err.Error(),
			}).Warn("Failed to shut down meter provider")
		}
	}()
	otel.SetMeterProvider(mp)

	pluginCfg, err := loadPluginConfig(cfg)
	if err != nil {
		return nil, err
	}

	plugin, err := denoisefx.Load(pluginCfg)
	if err != nil {
		return nil, err
	}
	defer plugin.Unload()

	settings := plugin.Defaults()
	settings.Provider = sequence[0]
	if cfg.strength != "" {
		if settings.Strength, err = config.ParseStrength(cfg.strength); err != nil {
			return nil, err
		}
	}

	width, height := uint32(cfg.width), uint32(cfg.height)
	host := sim.NewSimulatedHost("simulator", width, height)
	inst, err := plugin.NewInstance(host, filter.WithName("simulator"), filter.WithSettings(settings))
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Switches: []SwitchEvent{{Frame: 0, To: sequence[0]}},
	}
	start := time.Now()
	runErr := renderFrames(ctx, cfg, inst, host, sequence, summary)

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := inst.WaitForSwitch(waitCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("waiting for provider switch: %w", err)
	}
	cancel()

	summary.Elapsed = time.Since(start)
	summary.Final = inst.Snapshot()
	summary.Stats = inst.Stats()
	summary.Host = host.GetTypedStats()

	if err := inst.Close(); err != nil && runErr == nil {
		runErr = err
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "runSimulation",
			"error":    err.Error(),
		}).Warn("Failed to collect metrics")
	} else {
		summarizeMetrics(&rm, summary)
	}

	return summary, runErr
}

// loadPluginConfig reads the plugin configuration and applies CLI overrides.
func loadPluginConfig(cfg *CLIConfig) (*config.PluginConfig, error) {
	var opts []config.LoadOption
	if cfg.configFile != "" {
		opts = append(opts, config.WithConfigFile(cfg.configFile))
	}
	if cfg.envFile != "" {
		opts = append(opts, config.WithEnvFile(cfg.envFile))
	}
	pluginCfg, err := config.LoadPluginConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.logLevel != "" {
		pluginCfg.LogLevel = cfg.logLevel
	}
	return pluginCfg, nil
}

func renderFrames(ctx context.Context, cfg *CLIConfig, inst *filter.Instance, host *sim.SimulatedHost,
	sequence []provider.Kind, summary *Summary) error {

	width, height := uint32(cfg.width), uint32(cfg.height)
	for frame := 0; frame < cfg.frames; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if cfg.switchEvery > 0 && frame > 0 && frame%cfg.switchEvery == 0 {
			next := sequence[(frame/cfg.switchEvery)%len(sequence)]
			s := inst.Settings()
			if s.Provider != next {
				s.Provider = next
				if err := inst.Update(s); err != nil {
					return fmt.Errorf("switching to %s: %w", next, err)
				}
				summary.Switches = append(summary.Switches, SwitchEvent{Frame: frame, To: next})
			}
		}

		host.SetSourceFrame(sim.NoisyFrame(width, height, cfg.seed+uint64(frame)))
		inst.Tick()
		for r := 0; r < cfg.rendersPerTick; r++ {
			inst.Render()
			summary.Renders++
		}
		summary.Frames++

		if cfg.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.interval):
			}
		}
	}
	return nil
}

func summarizeMetrics(rm *metricdata.ResourceMetrics, summary *Summary) {
	summary.FramesByOutcome = make(map[string]int64)
	summary.SwitchResults = make(map[string]int64)
	summary.ProcessSeconds = make(map[string]float64)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					switch m.Name {
					case "denoisefx.frames":
						p, _ := dp.Attributes.Value("provider")
						o, _ := dp.Attributes.Value("outcome")
						name := p.AsString()
						if name == "" {
							name = "-"
						}
						summary.FramesByOutcome[name+"/"+o.AsString()] += dp.Value
					case "denoisefx.switches":
						r, _ := dp.Attributes.Value("result")
						summary.SwitchResults[r.AsString()] += dp.Value
					}
				}
			case metricdata.Histogram[float64]:
				if m.Name != "denoisefx.process.duration" {
					continue
				}
				for _, dp := range data.DataPoints {
					if dp.Count == 0 {
						continue
					}
					p, _ := dp.Attributes.Value("provider")
					summary.ProcessSeconds[p.AsString()] = dp.Sum / float64(dp.Count)
				}
			}
		}
	}
}

// Print writes a human readable report.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\nSimulation summary (%v)\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  frames:   %d ticks, %d renders\n", s.Frames, s.Renders)
	fmt.Fprintf(w, "  outcome:  %d processed, %d cached, %d bypassed\n",
		s.Stats.Processed, s.Stats.Cached, s.Stats.Bypassed)
	fmt.Fprintf(w, "  failures: %d capture, %d process, %d null output\n",
		s.Stats.CaptureRefusals, s.Stats.ProcessErrors, s.Stats.NullOutputs)
	fmt.Fprintf(w, "  host:     %d captures, %d draws, %d skips\n",
		s.Host.Captures, s.Host.Draws, s.Host.Skips)
	fmt.Fprintf(w, "  provider: %s (loaded %s, ready %t)\n",
		s.Final.Kind, s.Final.Loaded, s.Final.Ready)

	fmt.Fprintln(w, "  switches:")
	for _, ev := range s.Switches {
		fmt.Fprintf(w, "    frame %4d -> %s\n", ev.Frame, ev.To)
	}
	for _, k := range sortedKeys(s.SwitchResults) {
		fmt.Fprintf(w, "    %-10s %d\n", k, s.SwitchResults[k])
	}

	if len(s.FramesByOutcome) > 0 {
		fmt.Fprintln(w, "  frames by provider:")
		for _, k := range sortedKeys(s.FramesByOutcome) {
			fmt.Fprintf(w, "    %-32s %d\n", k, s.FramesByOutcome[k])
		}
	}
	if len(s.ProcessSeconds) > 0 {
		fmt.Fprintln(w, "  mean process time:")
		for _, k := range sortedKeys(s.ProcessSeconds) {
			fmt.Fprintf(w, "    %-32s %v\n", k, time.Duration(s.ProcessSeconds[k]*float64(time.Second)))
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
