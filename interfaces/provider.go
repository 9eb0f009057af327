package interfaces

import "github.com/opd-ai/denoisefx/video"

// IProvider defines the capability every denoising backend exposes.
// All methods are called with the owning instance's provider lock held, so an
// implementation never sees concurrent calls from the same instance.
type IProvider interface {
	// Name returns the display name used in logs
	Name() string

	// Load acquires backend resources (models, device contexts, scratch buffers)
	Load() error

	// Unload releases everything Load acquired. Buffers previously returned by
	// Process become invalid.
	Unload()

	// Process denoises input and returns a buffer owned by the backend.
	// A nil result with a nil error means the backend produced nothing.
	Process(input *video.VideoFrame) (*video.VideoFrame, error)

	// Configure applies backend-specific parameters
	Configure(params Params) error
}

// IResizer is optionally implemented by backends that restrict the frame size,
// e.g. to a fixed divisibility or a maximum resolution.
type IResizer interface {
	// Resize reports the size the backend will honour for the requested one
	Resize(width, height uint32) (uint32, uint32)
}

// ParamStrength selects the denoising strength: 0 = weak, 1 = strong.
const ParamStrength = "strength"

// Params is the opaque parameter blob handed to IProvider.Configure.
type Params map[string]any

// Int returns the integer stored under key, or def when it is missing or not numeric.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
