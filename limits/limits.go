// Package limits provides centralized frame dimension limits for the denoising stage.
// This ensures consistent validation across the host adapter, the backends and the
// filter instance.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MinFrameDimension is the smallest width or height an instance ever reports.
	// A filter with no upstream still advertises 1x1 to the host pipeline.
	MinFrameDimension = 1

	// MaxFrameWidth is the widest frame any buffer will be allocated for.
	MaxFrameWidth = 8192

	// MaxFrameHeight is the tallest frame any buffer will be allocated for.
	MaxFrameHeight = 8192

	// MaxFramePixels bounds the luma plane size (64 MiB) to prevent memory
	// exhaustion from a misbehaving upstream source.
	MaxFramePixels = MaxFrameWidth * MaxFrameHeight
)

var (
	// ErrFrameEmpty indicates a zero width or height was provided
	ErrFrameEmpty = errors.New("empty frame")

	// ErrFrameTooLarge indicates the frame exceeds the maximum dimensions
	ErrFrameTooLarge = errors.New("frame too large")
)

// ValidateFrameSize validates frame dimensions against MaxFrameWidth and MaxFrameHeight.
// Returns an error with context including the actual and maximum sizes.
func ValidateFrameSize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameEmpty, width, height)
	}
	if width > MaxFrameWidth || height > MaxFrameHeight {
		return fmt.Errorf("%w: %dx%d exceeds limit %dx%d", ErrFrameTooLarge, width, height, MaxFrameWidth, MaxFrameHeight)
	}
	return nil
}

// ClampFrameSize restricts dimensions to [MinFrameDimension, max].
// A zero max means the package-wide maximum for that axis.
func ClampFrameSize(width, height, maxWidth, maxHeight uint32) (uint32, uint32) {
	if maxWidth == 0 || maxWidth > MaxFrameWidth {
		maxWidth = MaxFrameWidth
	}
	if maxHeight == 0 || maxHeight > MaxFrameHeight {
		maxHeight = MaxFrameHeight
	}
	return clamp(width, MinFrameDimension, maxWidth), clamp(height, MinFrameDimension, maxHeight)
}

// AtLeastOne returns v, or MinFrameDimension when v is zero.
func AtLeastOne(v uint32) uint32 {
	if v < MinFrameDimension {
		return MinFrameDimension
	}
	return v
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
