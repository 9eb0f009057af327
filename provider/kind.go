package provider

import (
	"fmt"
	"strings"
)

// Kind identifies a denoising backend.
// The numeric values are persisted in filter settings and must not change.
type Kind int32

const (
	// Invalid means no backend; the filter passes frames through
	Invalid Kind = -1
	// Automatic is a request-time alias resolved with Registry.FindIdealProvider
	Automatic Kind = 0
	// Spatial is the edge-preserving spatial denoiser
	Spatial Kind = 1
	// Temporal is the recursive temporal denoiser
	Temporal Kind = 2
)

// String returns the display name of the kind.
func (k Kind) String() string {
	switch k {
	case Invalid:
		return "N/A"
	case Automatic:
		return "Automatic"
	case Spatial:
		return "Spatial Denoising"
	case Temporal:
		return "Temporal Denoising"
	default:
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
}

// Key returns the short lowercase identifier used in configuration files.
func (k Kind) Key() string {
	switch k {
	case Invalid:
		return "none"
	case Automatic:
		return "automatic"
	case Spatial:
		return "spatial"
	case Temporal:
		return "temporal"
	default:
		return fmt.Sprintf("kind%d", int32(k))
	}
}

// IsConcrete reports whether the kind names an actual backend.
func (k Kind) IsConcrete() bool {
	return k > Automatic
}

// ParseKind accepts a configuration key ("spatial") or a display name
// ("Spatial Denoising"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range []Kind{Invalid, Automatic, Spatial, Temporal} {
		if strings.EqualFold(s, k.Key()) || strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}
