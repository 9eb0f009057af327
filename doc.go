// Package denoisefx is the plugin shim of the video denoising filter.
//
// The host loads the plugin once per process, creates one filter instance
// per source it wants denoised, drives every instance from its render loop
// and unloads the plugin on shutdown:
//
//	cfg, err := config.LoadPluginConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	plugin, err := denoisefx.Load(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer plugin.Unload()
//
//	inst, err := plugin.NewInstance(host)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close()
//
//	for running {
//	    inst.Tick()
//	    inst.Render()
//	}
//
// # Backends
//
// Load registers the backends of package backend, probes them and keeps the
// usable ones. Backends may be disabled or reordered through
// config.PluginConfig; Automatic resolves to the first usable backend in
// priority order, or to pass-through when none is usable.
//
// # Configuration
//
// config.LoadPluginConfig reads an optional YAML or TOML file, an optional
// .env file and DENOISEFX_* environment variables:
//
//	DENOISEFX_WORKERS=2
//	DENOISEFX_LOG_LEVEL=debug
//	DENOISEFX_DISABLED_PROVIDERS=temporal
//	DENOISEFX_PROVIDER=spatial
//	DENOISEFX_STRENGTH=strong
//
// # Metrics
//
// Instances report frame outcomes, switch results and latencies through the
// global OpenTelemetry meter provider. Install one with otel.SetMeterProvider
// before Load to collect them.
//
// # Sub-packages
//
//   - [github.com/opd-ai/denoisefx/filter]: instance state machine and frame pipeline
//   - [github.com/opd-ai/denoisefx/provider]: backend kinds and registry
//   - [github.com/opd-ai/denoisefx/backend]: spatial and temporal denoisers
//   - [github.com/opd-ai/denoisefx/taskpool]: background task runner
//   - [github.com/opd-ai/denoisefx/config]: settings, properties and plugin configuration
//   - [github.com/opd-ai/denoisefx/video]: YUV420 frame buffers and scaling
//   - [github.com/opd-ai/denoisefx/metrics]: OpenTelemetry instruments
//   - [github.com/opd-ai/denoisefx/testing]: simulated host and providers
package denoisefx
