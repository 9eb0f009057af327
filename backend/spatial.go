package backend

import (
	"fmt"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/limits"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
)

// Maximum resolution the spatial backend accepts. Larger inputs are captured
// downscaled.
const (
	SpatialMaxWidth  = 3840
	SpatialMaxHeight = 2160
)

// SpatialDenoiser removes noise within a single frame with a sigma filter on
// the luminance plane: each pixel becomes the mean of the neighbours whose
// value lies within a threshold of its own, so edges survive while flat areas
// are smoothed. Chroma is passed through.
type SpatialDenoiser struct {
	radius    int
	threshold int

	loaded bool
	output *video.VideoFrame
}

// NewSpatialDenoiser creates an unloaded spatial backend at strong strength.
func NewSpatialDenoiser() *SpatialDenoiser {
	s := &SpatialDenoiser{}
	s.setStrength(StrengthStrong)
	return s
}

// Name returns the display name.
func (s *SpatialDenoiser) Name() string {
	return "Spatial Denoising"
}

// Load allocates the output buffer.
func (s *SpatialDenoiser) Load() error {
	out, err := video.NewVideoFrame(2, 2)
	if err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	s.output = out
	s.loaded = true

	logrus.WithFields(logrus.Fields{
		"function":  "SpatialDenoiser.Load",
		"radius":    s.radius,
		"threshold": s.threshold,
	}).Info("Spatial denoiser loaded")
	return nil
}

// Unload releases the output buffer. Frames returned earlier become invalid.
func (s *SpatialDenoiser) Unload() {
	s.output = nil
	s.loaded = false

	logrus.WithFields(logrus.Fields{
		"function": "SpatialDenoiser.Unload",
	}).Info("Spatial denoiser unloaded")
}

// Configure applies the strength parameter.
func (s *SpatialDenoiser) Configure(params interfaces.Params) error {
	s.setStrength(params.Int(interfaces.ParamStrength, StrengthStrong))
	return nil
}

func (s *SpatialDenoiser) setStrength(strength int) {
	if strength == StrengthWeak {
		s.radius, s.threshold = 1, 12
		return
	}
	s.radius, s.threshold = 2, 24
}

// Resize restricts the frame to even dimensions within SpatialMaxWidth x
// SpatialMaxHeight.
func (s *SpatialDenoiser) Resize(width, height uint32) (uint32, uint32) {
	width, height = limits.ClampFrameSize(width, height, SpatialMaxWidth, SpatialMaxHeight)
	return evenAtLeastTwo(width), evenAtLeastTwo(height)
}

func evenAtLeastTwo(v uint32) uint32 {
	v &^= 1
	if v < 2 {
		return 2
	}
	return v
}

// Process denoises input into the backend's output buffer.
func (s *SpatialDenoiser) Process(input *video.VideoFrame) (*video.VideoFrame, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input frame: %w", err)
	}
	if err := s.output.Reallocate(input.Width, input.Height); err != nil {
		return nil, err
	}

	s.filterLuma(input)
	cw, ch := video.ChromaSize(input.Width, input.Height)
	copyRows(s.output.U, s.output.UStride, input.U, input.UStride, int(cw), int(ch))
	copyRows(s.output.V, s.output.VStride, input.V, input.VStride, int(cw), int(ch))

	return s.output, nil
}

// filterLuma applies the sigma filter to the Y plane.
func (s *SpatialDenoiser) filterLuma(input *video.VideoFrame) {
	width := int(input.Width)
	height := int(input.Height)
	src, srcStride := input.Y, input.YStride
	dst, dstStride := s.output.Y, s.output.YStride

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := int(src[y*srcStride+x])
			sum := 0
			count := 0

			for dy := -s.radius; dy <= s.radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= height {
					continue
				}
				row := src[ny*srcStride:]
				for dx := -s.radius; dx <= s.radius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= width {
						continue
					}
					v := int(row[nx])
					if abs(v-center) <= s.threshold {
						sum += v
						count++
					}
				}
			}

			// count >= 1: the center always matches itself
			dst[y*dstStride+x] = byte((sum + count/2) / count)
		}
	}
}

// ProbeSpatial runs the spatial backend on a synthetic frame and verifies that
// flat regions are preserved and a hard edge is not smeared.
func ProbeSpatial() error {
	s := NewSpatialDenoiser()
	if err := s.Load(); err != nil {
		return err
	}
	defer s.Unload()

	in, err := video.NewVideoFrame(16, 8)
	if err != nil {
		return err
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			if x >= 8 {
				in.Y[y*in.YStride+x] = 200
			} else {
				in.Y[y*in.YStride+x] = 40
			}
		}
	}

	out, err := s.Process(in)
	if err != nil {
		return err
	}
	if !out.Equal(in) {
		return fmt.Errorf("%w: spatial filter altered a noise-free edge", ErrSelfTestFailed)
	}
	return nil
}

func copyRows(dst []byte, dstStride int, src []byte, srcStride int, width, height int) {
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+width], src[y*srcStride:y*srcStride+width])
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
