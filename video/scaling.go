// Package video provides video scaling capabilities for the denoising stage.
//
// This file implements video frame scaling functionality to resample
// YUV420 frames between the upstream resolution and the size negotiated
// with the active backend.
package video

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// Scaler provides video frame scaling functionality.
//
// Each YUV420 plane is wrapped as an 8-bit grayscale image and resampled
// independently, so chroma subsampling is preserved.
type Scaler struct {
	interpolator draw.Interpolator
}

// NewScaler creates a new bilinear video frame scaler.
func NewScaler() *Scaler {
	return &Scaler{
		interpolator: draw.BiLinear,
	}
}

// NewScalerWithInterpolator creates a scaler using the given kernel, e.g.
// draw.NearestNeighbor for cheap previews or draw.CatmullRom for quality.
func NewScalerWithInterpolator(interpolator draw.Interpolator) *Scaler {
	if interpolator == nil {
		interpolator = draw.BiLinear
	}
	return &Scaler{
		interpolator: interpolator,
	}
}

// Scale resizes a YUV420 video frame to the specified dimensions.
//
// Parameters:
//   - frame: Source video frame to scale
//   - targetWidth: Target width
//   - targetHeight: Target height
//
// Returns:
//   - *VideoFrame: Newly allocated scaled frame
//   - error: Any error that occurred during scaling
func (s *Scaler) Scale(frame *VideoFrame, targetWidth, targetHeight uint32) (*VideoFrame, error) {
	if frame == nil {
		return nil, fmt.Errorf("source frame cannot be nil")
	}

	result, err := NewVideoFrame(targetWidth, targetHeight)
	if err != nil {
		return nil, fmt.Errorf("invalid target dimensions: %w", err)
	}

	if err := s.ScaleInto(result, frame); err != nil {
		return nil, err
	}
	return result, nil
}

// ScaleInto resamples src into dst, keeping dst's dimensions. When the sizes
// match the planes are copied verbatim.
func (s *Scaler) ScaleInto(dst, src *VideoFrame) error {
	if dst == nil || src == nil {
		return fmt.Errorf("source and destination frames cannot be nil")
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("invalid source frame: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("invalid destination frame: %w", err)
	}

	if !s.IsScalingRequired(src.Width, src.Height, dst.Width, dst.Height) {
		copyPlane(dst.Y, dst.YStride, src.Y, src.YStride, int(src.Width), int(src.Height))
		cw, ch := ChromaSize(src.Width, src.Height)
		copyPlane(dst.U, dst.UStride, src.U, src.UStride, int(cw), int(ch))
		copyPlane(dst.V, dst.VStride, src.V, src.VStride, int(cw), int(ch))
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Scaler.ScaleInto",
		"src_width":  src.Width,
		"src_height": src.Height,
		"dst_width":  dst.Width,
		"dst_height": dst.Height,
	}).Debug("Resampling frame")

	srcCW, srcCH := ChromaSize(src.Width, src.Height)
	dstCW, dstCH := ChromaSize(dst.Width, dst.Height)

	s.scalePlane(dst.Y, dst.YStride, dst.Width, dst.Height, src.Y, src.YStride, src.Width, src.Height)
	s.scalePlane(dst.U, dst.UStride, dstCW, dstCH, src.U, src.UStride, srcCW, srcCH)
	s.scalePlane(dst.V, dst.VStride, dstCW, dstCH, src.V, src.VStride, srcCW, srcCH)
	return nil
}

// scalePlane resamples a single plane through the configured interpolator.
func (s *Scaler) scalePlane(dst []byte, dstStride int, dstWidth, dstHeight uint32,
	src []byte, srcStride int, srcWidth, srcHeight uint32) {

	srcImg := &image.Gray{
		Pix:    src,
		Stride: srcStride,
		Rect:   image.Rect(0, 0, int(srcWidth), int(srcHeight)),
	}
	dstImg := &image.Gray{
		Pix:    dst,
		Stride: dstStride,
		Rect:   image.Rect(0, 0, int(dstWidth), int(dstHeight)),
	}
	s.interpolator.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
}

func copyPlane(dst []byte, dstStride int, src []byte, srcStride int, width, height int) {
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+width], src[y*srcStride:y*srcStride+width])
	}
}

// GetScaleFactors calculates the scaling factors for given dimensions.
func (s *Scaler) GetScaleFactors(srcWidth, srcHeight, dstWidth, dstHeight uint32) (xFactor, yFactor float64) {
	xFactor = float64(dstWidth) / float64(srcWidth)
	yFactor = float64(dstHeight) / float64(srcHeight)
	return
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight uint32) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}
