package backend

import (
	"fmt"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
)

// MotionThreshold is the luma difference above which a pixel is treated as
// moving and its history is discarded.
const MotionThreshold = 32

// TemporalDenoiser blends each frame with an exponentially decaying history of
// the previous ones. Static noise averages out over time; pixels that changed
// by more than MotionThreshold restart from the current frame to avoid ghosting.
type TemporalDenoiser struct {
	// history weight out of 256
	weight int

	loaded  bool
	primed  bool
	history *video.VideoFrame
}

// NewTemporalDenoiser creates an unloaded temporal backend at strong strength.
func NewTemporalDenoiser() *TemporalDenoiser {
	t := &TemporalDenoiser{}
	t.setStrength(StrengthStrong)
	return t
}

// Name returns the display name.
func (t *TemporalDenoiser) Name() string {
	return "Temporal Denoising"
}

// Load allocates the history buffer.
func (t *TemporalDenoiser) Load() error {
	history, err := video.NewVideoFrame(2, 2)
	if err != nil {
		return fmt.Errorf("allocating history buffer: %w", err)
	}
	t.history = history
	t.primed = false
	t.loaded = true

	logrus.WithFields(logrus.Fields{
		"function": "TemporalDenoiser.Load",
		"weight":   t.weight,
	}).Info("Temporal denoiser loaded")
	return nil
}

// Unload drops the history.
func (t *TemporalDenoiser) Unload() {
	t.history = nil
	t.primed = false
	t.loaded = false

	logrus.WithFields(logrus.Fields{
		"function": "TemporalDenoiser.Unload",
	}).Info("Temporal denoiser unloaded")
}

// Configure applies the strength parameter. The history is kept.
func (t *TemporalDenoiser) Configure(params interfaces.Params) error {
	t.setStrength(params.Int(interfaces.ParamStrength, StrengthStrong))
	return nil
}

func (t *TemporalDenoiser) setStrength(strength int) {
	if strength == StrengthWeak {
		t.weight = 64
		return
	}
	t.weight = 128
}

// Process blends input into the history and returns the history buffer.
func (t *TemporalDenoiser) Process(input *video.VideoFrame) (*video.VideoFrame, error) {
	if !t.loaded {
		return nil, ErrNotLoaded
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input frame: %w", err)
	}

	if !t.primed || t.history.Width != input.Width || t.history.Height != input.Height {
		if t.primed {
			logrus.WithFields(logrus.Fields{
				"function":   "TemporalDenoiser.Process",
				"old_width":  t.history.Width,
				"old_height": t.history.Height,
				"new_width":  input.Width,
				"new_height": input.Height,
			}).Debug("Frame size changed, resetting history")
		}
		if err := t.history.CopyFrom(input); err != nil {
			return nil, err
		}
		t.primed = true
		return t.history, nil
	}

	h := t.history
	cw, ch := video.ChromaSize(input.Width, input.Height)
	blendPlane(h.Y, h.YStride, input.Y, input.YStride, int(input.Width), int(input.Height), t.weight)
	blendPlane(h.U, h.UStride, input.U, input.UStride, int(cw), int(ch), t.weight)
	blendPlane(h.V, h.VStride, input.V, input.VStride, int(cw), int(ch), t.weight)
	return h, nil
}

// blendPlane computes hist = (hist*w + cur*(256-w)) / 256 per visible sample,
// or hist = cur where the sample moved.
func blendPlane(hist []byte, histStride int, cur []byte, curStride int, width, height, weight int) {
	for y := 0; y < height; y++ {
		hrow := hist[y*histStride : y*histStride+width]
		crow := cur[y*curStride : y*curStride+width]
		for x, c := range crow {
			h := int(hrow[x])
			v := int(c)
			if abs(h-v) > MotionThreshold {
				hrow[x] = c
				continue
			}
			hrow[x] = byte((h*weight + v*(256-weight) + 128) >> 8)
		}
	}
}

// ProbeTemporal verifies that a static frame converges to itself.
func ProbeTemporal() error {
	t := NewTemporalDenoiser()
	if err := t.Load(); err != nil {
		return err
	}
	defer t.Unload()

	in, err := video.NewVideoFrame(8, 8)
	if err != nil {
		return err
	}
	for i := range in.Y {
		in.Y[i] = byte(16 + i)
	}

	for i := 0; i < 2; i++ {
		out, err := t.Process(in)
		if err != nil {
			return err
		}
		if !out.Equal(in) {
			return fmt.Errorf("%w: temporal filter altered a static frame", ErrSelfTestFailed)
		}
	}
	return nil
}
