package config

import (
	"github.com/opd-ai/denoisefx/provider"
)

// PropertyOption is one entry of a list property.
type PropertyOption struct {
	Label string
	Value int
}

// Property describes a user-facing setting for a host's property panel.
type Property struct {
	Key     string
	Label   string
	Options []PropertyOption
	Default int
}

// ProviderProperty lists Automatic followed by every available backend in
// priority order.
func ProviderProperty(r *provider.Registry) Property {
	p := Property{
		Key:     KeyProvider,
		Label:   "Provider",
		Default: int(provider.Automatic),
		Options: []PropertyOption{{Label: provider.Automatic.String(), Value: int(provider.Automatic)}},
	}
	if r == nil {
		return p
	}
	for _, k := range r.Kinds() {
		if r.IsAvailable(k) {
			p.Options = append(p.Options, PropertyOption{Label: k.String(), Value: int(k)})
		}
	}
	return p
}

// StrengthProperty lists the strength levels.
func StrengthProperty() Property {
	return Property{
		Key:     KeyStrength,
		Label:   "Strength",
		Default: int(StrengthStrong),
		Options: []PropertyOption{
			{Label: StrengthWeak.String(), Value: int(StrengthWeak)},
			{Label: StrengthStrong.String(), Value: int(StrengthStrong)},
		},
	}
}

// Properties returns the property set for a filter whose configured provider
// is selected. Strength is only offered when selected resolves to a backend.
func Properties(r *provider.Registry, selected provider.Kind) []Property {
	props := []Property{ProviderProperty(r)}
	resolved := selected
	if r != nil {
		resolved = r.Resolve(selected)
	}
	if resolved.IsConcrete() {
		props = append(props, StrengthProperty())
	}
	return props
}
