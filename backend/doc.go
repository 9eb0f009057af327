// Package backend provides the CPU denoising backends shipped with the filter.
//
// SpatialDenoiser smooths each frame independently with an edge-preserving
// sigma filter on the luma plane. TemporalDenoiser averages each pixel with
// its own history across frames and falls back to the current value where
// motion is detected.
//
// Both implement interfaces.IProvider and own the buffer they return from
// Process; the buffer stays valid until the next Process or Unload call.
// Variants registers them with a provider.Registry:
//
//	registry := provider.NewRegistry(backend.Variants())
//	registry.Initialize()
package backend
