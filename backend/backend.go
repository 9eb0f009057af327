package backend

import (
	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/provider"
)

// Variants returns the built-in backends in default priority order.
func Variants() []provider.Variant {
	return []provider.Variant{
		{
			Kind:  provider.Spatial,
			New:   func() interfaces.IProvider { return NewSpatialDenoiser() },
			Probe: ProbeSpatial,
		},
		{
			Kind:  provider.Temporal,
			New:   func() interfaces.IProvider { return NewTemporalDenoiser() },
			Probe: ProbeTemporal,
		},
	}
}

var (
	_ interfaces.IProvider = (*SpatialDenoiser)(nil)
	_ interfaces.IResizer  = (*SpatialDenoiser)(nil)
	_ interfaces.IProvider = (*TemporalDenoiser)(nil)
)
