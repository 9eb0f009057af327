// Package provider implements the denoising backend registry.
//
// Each backend is described by a [Variant]: its [Kind], a constructor and an
// availability probe. At plugin load the registry probes every variant once;
// probe failures demote a kind to unavailable instead of aborting, and when no
// kind survives the filter type is disabled altogether.
//
// # Selection
//
// Filter settings may request [Automatic], which resolves to the first
// available kind in priority order:
//
//	reg := provider.NewRegistry(backend.Variants())
//	reg.Initialize()
//	defer reg.Finalize()
//
//	kind := reg.Resolve(provider.Automatic) // Spatial, Temporal, or Invalid
//	p, err := reg.New(kind)
//
// # Process-wide Lifecycle
//
// The plugin shim owns one registry for the whole process through
// [Initialize], [Get] and [Finalize]. Filter instances receive it by injection
// and treat it as read-only.
package provider
