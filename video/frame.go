package video

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/denoisefx/limits"
	"golang.org/x/crypto/blake2b"
)

// VideoFrame represents a video frame in YUV420 format.
//
// A VideoFrame is the backend-agnostic buffer handed between the host
// pipeline, the filter instance and the denoising backends. Chroma planes
// are subsampled 2x2, rounding up for odd dimensions.
type VideoFrame struct {
	Width   uint32
	Height  uint32
	Y       []byte // Luminance plane
	U       []byte // Chrominance U plane
	V       []byte // Chrominance V plane
	YStride int    // Stride for Y plane
	UStride int    // Stride for U plane
	VStride int    // Stride for V plane
}

// ChromaSize returns the dimensions of the U and V planes for a frame of
// the given luma size.
func ChromaSize(width, height uint32) (uint32, uint32) {
	return (width + 1) / 2, (height + 1) / 2
}

// NewVideoFrame allocates a black frame of the given size.
func NewVideoFrame(width, height uint32) (*VideoFrame, error) {
	if err := limits.ValidateFrameSize(width, height); err != nil {
		return nil, err
	}

	frame := &VideoFrame{}
	frame.allocate(width, height)
	frame.Clear()
	return frame, nil
}

// Reallocate resizes the frame in place, reusing the backing arrays when they
// are already large enough. Plane contents are undefined afterwards; callers
// that need a defined state must Clear the frame.
func (f *VideoFrame) Reallocate(width, height uint32) error {
	if err := limits.ValidateFrameSize(width, height); err != nil {
		return err
	}
	if f.Width == width && f.Height == height {
		return nil
	}
	f.allocate(width, height)
	return nil
}

func (f *VideoFrame) allocate(width, height uint32) {
	cw, ch := ChromaSize(width, height)
	ySize := int(width) * int(height)
	uvSize := int(cw) * int(ch)

	f.Width = width
	f.Height = height
	f.YStride = int(width)
	f.UStride = int(cw)
	f.VStride = int(cw)
	f.Y = resize(f.Y, ySize)
	f.U = resize(f.U, uvSize)
	f.V = resize(f.V, uvSize)
}

func resize(buf []byte, n int) []byte {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]byte, n)
}

// Clear fills the frame with black (Y=0, U=V=128).
func (f *VideoFrame) Clear() {
	clear(f.Y)
	for i := range f.U {
		f.U[i] = 128
	}
	for i := range f.V {
		f.V[i] = 128
	}
}

// Clone creates a deep copy of the frame.
func (f *VideoFrame) Clone() *VideoFrame {
	return &VideoFrame{
		Width:   f.Width,
		Height:  f.Height,
		YStride: f.YStride,
		UStride: f.UStride,
		VStride: f.VStride,
		Y:       append([]byte(nil), f.Y...),
		U:       append([]byte(nil), f.U...),
		V:       append([]byte(nil), f.V...),
	}
}

// CopyFrom copies the visible pixels of src into f row by row, reallocating f
// if the sizes differ. Strides of the two frames may differ.
func (f *VideoFrame) CopyFrom(src *VideoFrame) error {
	if err := src.Validate(); err != nil {
		return fmt.Errorf("invalid source frame: %w", err)
	}
	if err := f.Reallocate(src.Width, src.Height); err != nil {
		return err
	}
	cw, ch := ChromaSize(src.Width, src.Height)
	copyPlane(f.Y, f.YStride, src.Y, src.YStride, int(src.Width), int(src.Height))
	copyPlane(f.U, f.UStride, src.U, src.UStride, int(cw), int(ch))
	copyPlane(f.V, f.VStride, src.V, src.VStride, int(cw), int(ch))
	return nil
}

// Equal reports whether two frames have identical dimensions and pixels.
func (f *VideoFrame) Equal(other *VideoFrame) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Width == other.Width && f.Height == other.Height &&
		bytes.Equal(f.Y, other.Y) &&
		bytes.Equal(f.U, other.U) &&
		bytes.Equal(f.V, other.V)
}

// Validate checks the plane sizes against the frame dimensions.
func (f *VideoFrame) Validate() error {
	if f == nil {
		return fmt.Errorf("frame cannot be nil")
	}
	if err := limits.ValidateFrameSize(f.Width, f.Height); err != nil {
		return err
	}
	cw, ch := ChromaSize(f.Width, f.Height)
	if len(f.Y) < f.YStride*int(f.Height) || f.YStride < int(f.Width) {
		return fmt.Errorf("y plane too small: %d bytes for %dx%d", len(f.Y), f.Width, f.Height)
	}
	if len(f.U) < f.UStride*int(ch) || f.UStride < int(cw) {
		return fmt.Errorf("u plane too small: %d bytes for %dx%d", len(f.U), cw, ch)
	}
	if len(f.V) < f.VStride*int(ch) || f.VStride < int(cw) {
		return fmt.Errorf("v plane too small: %d bytes for %dx%d", len(f.V), cw, ch)
	}
	return nil
}

// Checksum returns a BLAKE2b-256 fingerprint of the frame dimensions and planes.
// Two frames with equal checksums are treated as bit-identical.
func (f *VideoFrame) Checksum() [32]byte {
	h, _ := blake2b.New256(nil)
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], f.Width)
	binary.LittleEndian.PutUint32(hdr[4:], f.Height)
	h.Write(hdr[:])
	h.Write(f.Y)
	h.Write(f.U)
	h.Write(f.V)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
