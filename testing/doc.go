// Package testing provides in-memory stand-ins for the collaborators of the
// denoising filter, for deterministic tests and the simulator command.
//
// # Simulated Host
//
// SimulatedHost implements interfaces.IHost. Its target source reports a
// configurable size, Capture resamples an upstream picture into the filter's
// input buffer, and every Draw or SkipVideoFilter call is appended to a log:
//
//	host := testing.NewSimulatedHost("scene", 1920, 1080)
//	inst.Tick()
//	inst.Render(host)
//
//	last, _ := host.LastDraw()
//	if last.Skipped {
//	    t.Error("expected a published frame")
//	}
//
// Each DrawRecord carries the BLAKE2b checksum of the published frame taken
// at draw time, so two records can be compared for bit identity even though
// the filter reuses its buffers.
//
// # Simulated Providers
//
// SimulatedProvider implements interfaces.IProvider and IResizer. Its output
// is the luma inverse of its input. Options inject load failures, blocking
// loads, process errors, panics and nil results. ProviderSet turns simulated
// providers into registry variants and remembers every instance it created:
//
//	set := testing.NewProviderSet()
//	set.Configure(provider.Temporal, testing.WithLoadError(testing.ErrSimulatedFailure))
//	registry := provider.NewRegistry(set.Variants(provider.Spatial, provider.Temporal))
//
// # Thread Safety
//
// All methods are safe for concurrent use. Provider counters are atomic so a
// test goroutine may read them while a switch task runs.
package testing
