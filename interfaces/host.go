package interfaces

import "github.com/opd-ai/denoisefx/video"

// ISource is an upstream element of the host pipeline.
type ISource interface {
	// Name returns the display name of the source
	Name() string

	// Width returns the base width of the source, 0 when it has no content
	Width() uint32

	// Height returns the base height of the source, 0 when it has no content
	Height() uint32
}

// IHost defines the pipeline placement contract a filter instance runs inside.
// The host drives Tick and Render on its render goroutine.
type IHost interface {
	// Name returns the name of the filter placement for logging
	Name() string

	// Target returns the next element up the chain, nil if none
	Target() ISource

	// Parent returns the source the filter is attached to, nil if none
	Parent() ISource

	// Capture renders the upstream frame into dst at dst's size. It returns
	// false when the upstream chain cannot supply a frame right now.
	Capture(dst *video.VideoFrame) bool

	// SkipVideoFilter passes the upstream frame through unchanged for this render
	SkipVideoFilter()

	// Draw publishes frame as a full-frame sprite of the given size to the
	// next stage of the pipeline
	Draw(frame *video.VideoFrame, width, height uint32)
}
