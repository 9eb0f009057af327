package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/spf13/viper"
)

// Settings keys used in a filter's settings blob.
const (
	KeyProvider = "provider"
	KeyStrength = "strength"
)

// Strength selects how aggressively the backend denoises.
type Strength int

const (
	// StrengthWeak keeps more detail
	StrengthWeak Strength = 0
	// StrengthStrong removes more noise
	StrengthStrong Strength = 1
)

// String returns the display name.
func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "Weak"
	case StrengthStrong:
		return "Strong"
	default:
		return fmt.Sprintf("Strength(%d)", int(s))
	}
}

// ParseStrength accepts "weak", "strong" or their numeric values.
func ParseStrength(s string) (Strength, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		st := Strength(n)
		if st != StrengthWeak && st != StrengthStrong {
			return StrengthStrong, fmt.Errorf("%w: strength %d out of range", ErrInvalidSettings, n)
		}
		return st, nil
	}
	for _, st := range []Strength{StrengthWeak, StrengthStrong} {
		if strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	return StrengthStrong, fmt.Errorf("%w: unknown strength %q", ErrInvalidSettings, s)
}

// Settings is the per-instance configuration of the filter.
type Settings struct {
	Provider provider.Kind `mapstructure:"provider" validate:"min=-1,max=2"`
	Strength Strength      `mapstructure:"strength" validate:"min=0,max=1"`
}

// Defaults returns Provider=Automatic, Strength=Strong.
func Defaults() Settings {
	return Settings{
		Provider: provider.Automatic,
		Strength: StrengthStrong,
	}
}

// Validate checks the field ranges.
func (s Settings) Validate() error {
	return validateStruct(s)
}

// Params converts the settings into the blob passed to IProvider.Configure.
func (s Settings) Params() interfaces.Params {
	return interfaces.Params{
		interfaces.ParamStrength: int(s.Strength),
	}
}

// FromMap reads settings from a loosely typed blob as delivered by a host.
// Values may be numeric or names ("temporal", "weak"). Missing keys take
// their defaults.
func FromMap(values map[string]any) (Settings, error) {
	def := Defaults()
	v := viper.New()
	v.SetDefault(KeyProvider, int(def.Provider))
	v.SetDefault(KeyStrength, int(def.Strength))
	if err := v.MergeConfigMap(values); err != nil {
		return def, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	s := def
	if name, ok := v.Get(KeyProvider).(string); ok {
		kind, err := parseKindValue(name)
		if err != nil {
			return def, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		s.Provider = kind
	} else {
		s.Provider = provider.Kind(v.GetInt(KeyProvider))
	}

	if name, ok := v.Get(KeyStrength).(string); ok {
		st, err := ParseStrength(name)
		if err != nil {
			return def, err
		}
		s.Strength = st
	} else {
		s.Strength = Strength(v.GetInt(KeyStrength))
	}

	if err := s.Validate(); err != nil {
		return def, err
	}
	return s, nil
}

// ToMap is the inverse of FromMap, using numeric values.
func (s Settings) ToMap() map[string]any {
	return map[string]any{
		KeyProvider: int(s.Provider),
		KeyStrength: int(s.Strength),
	}
}

func parseKindValue(s string) (provider.Kind, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return provider.Kind(n), nil
	}
	return provider.ParseKind(s)
}
