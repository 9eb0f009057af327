// Package main provides denoisefx-sim, a command-line driver for the
// denoising filter.
//
// # Overview
//
// denoisefx-sim loads the plugin with the real backends, attaches one filter
// instance to a simulated host and renders a stream of noisy frames. While
// frames are rendered it cycles the instance through a sequence of providers,
// so the output shows frames bypassed during a switch, frames processed by
// each backend and cached frames republished between ticks.
//
// # Usage
//
// Run with default settings:
//
//	go run ./cmd/denoisefx-sim
//
// Full HD with a single backend:
//
//	go run ./cmd/denoisefx-sim -width 1920 -height 1080 -sequence temporal -switch-every 0
//
// Plugin configuration comes from DENOISEFX_* variables, an optional
// configuration file (-config) and an optional .env file (-env-file).
//
// # Output
//
// At the end of the run the simulator prints instance and host counters and
// the OpenTelemetry metrics collected through an in-process reader: frames by
// provider and outcome, switch results and mean processing time per backend.
package main
