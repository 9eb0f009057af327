// Package metrics exports OpenTelemetry instruments for the denoising filter.
//
// Instruments:
//
//   - denoisefx.frames: Render calls by provider, outcome and bypass reason
//   - denoisefx.process.duration: provider Process latency in seconds
//   - denoisefx.switches: switch tasks by source, target and result
//   - denoisefx.switch.duration: unload plus load latency in seconds
//   - denoisefx.instances.active: live filter instances
//
// The Recorder records into whatever MeterProvider its meter came from; with
// no SDK installed the global provider is a no-op. A nil *Recorder is valid.
package metrics
