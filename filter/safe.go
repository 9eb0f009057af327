package filter

import (
	"fmt"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/video"
)

// The helpers below convert backend panics into errors so that no backend
// failure reaches the host's render loop or the task runner.

func safeLoad(b interfaces.IProvider) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Load()
}

func safeUnload(b interfaces.IProvider) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	b.Unload()
	return nil
}

func safeConfigure(b interfaces.IProvider, params interfaces.Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Configure(params)
}

func safeProcess(b interfaces.IProvider, in *video.VideoFrame) (out *video.VideoFrame, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Process(in)
}

func safeResize(r interfaces.IResizer, width, height uint32) (w, h uint32, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			w, h, err = width, height, fmt.Errorf("panic: %v", rec)
		}
	}()
	w, h = r.Resize(width, height)
	return w, h, nil
}
