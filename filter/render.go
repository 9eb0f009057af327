package filter

import (
	"context"
	"time"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/metrics"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
)

// upstream returns the node whose frame the filter consumes: the target, or
// the parent when there is no target.
func (i *Instance) upstream() interfaces.ISource {
	if t := i.host.Target(); t != nil {
		return t
	}
	return i.host.Parent()
}

// Tick negotiates the frame size for the coming render and marks the cached
// output stale.
func (i *Instance) Tick() {
	src := i.upstream()
	if src == nil {
		return
	}
	width, height := src.Width(), src.Height()

	if i.ready.Load() && width > 0 && height > 0 {
		i.mu.Lock()
		if i.ready.Load() {
			width, height = i.negotiateLocked(width, height)
		}
		i.mu.Unlock()
	}

	i.width.Store(width)
	i.height.Store(height)
	i.dirty.Store(true)
}

// negotiateLocked lets the loaded backend restrict the size. Caller holds i.mu.
func (i *Instance) negotiateLocked(width, height uint32) (uint32, uint32) {
	resizer, ok := i.backend.(interfaces.IResizer)
	if !ok {
		return width, height
	}
	w, h, err := safeResize(resizer, width, height)
	if err != nil || w == 0 || h == 0 {
		fields := logrus.Fields{
			"function": "Instance.negotiate",
			"instance": i.name,
			"provider": i.loaded.String(),
			"width":    width,
			"height":   height,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		logrus.WithFields(fields).Debug("Provider size restriction ignored")
		return width, height
	}
	return w, h
}

// Render runs capture, process and publish for one frame. When the cached
// output is still current it is republished without touching the backend.
// Every failure bypasses the filter for this frame; nothing is propagated to
// the host.
func (i *Instance) Render() {
	if !i.ready.Load() {
		i.bypass(metrics.ReasonNotReady)
		return
	}
	src := i.upstream()
	if src == nil {
		i.bypass(metrics.ReasonNoTarget)
		return
	}
	width, height := src.Width(), src.Height()
	if width == 0 || height == 0 {
		i.bypass(metrics.ReasonEmptyFrame)
		return
	}

	i.mu.Lock()
	if !i.ready.Load() {
		i.mu.Unlock()
		i.bypass(metrics.ReasonNotReady)
		return
	}

	outcome := metrics.OutcomeCached
	output := i.output
	if i.dirty.Load() || output == nil {
		var reason string
		output, reason = i.processLocked(width, height)
		if output == nil {
			i.mu.Unlock()
			i.bypass(reason)
			return
		}
		outcome = metrics.OutcomeProcessed
	}
	kind := i.loaded
	i.mu.Unlock()

	if outcome == metrics.OutcomeProcessed {
		i.stats.processed.Add(1)
	} else {
		i.stats.cached.Add(1)
	}
	i.recorder.RecordFrame(context.Background(), kind.String(), outcome, "")

	i.host.Draw(output, i.Width(), i.Height())
}

// processLocked captures the upstream frame and runs the backend on it. It
// returns nil and a bypass reason on failure. Caller holds i.mu.
func (i *Instance) processLocked(width, height uint32) (*video.VideoFrame, string) {
	width, height = i.negotiateLocked(width, height)
	i.width.Store(width)
	i.height.Store(height)

	if err := i.input.Reallocate(width, height); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Instance.Render",
			"instance": i.name,
			"width":    width,
			"height":   height,
			"error":    err.Error(),
		}).Debug("Cannot allocate input buffer")
		return nil, metrics.ReasonEmptyFrame
	}
	i.input.Clear()

	if !i.host.Capture(i.input) {
		i.stats.captureRefusals.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "Instance.Render",
			"instance": i.name,
		}).Debug("Capture refused by host")
		return nil, metrics.ReasonCaptureRefused
	}

	if i.backend == nil {
		i.output = i.input
		i.dirty.Store(false)
		return i.output, ""
	}

	start := time.Now()
	out, err := safeProcess(i.backend, i.input)
	i.recorder.RecordProcess(context.Background(), i.loaded.String(), time.Since(start))
	if err != nil {
		i.output = nil
		i.stats.processErrors.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "Instance.Render",
			"instance": i.name,
			"provider": i.loaded.String(),
			"error":    err.Error(),
		}).Debug("Provider failed to process frame")
		return nil, metrics.ReasonProcessError
	}
	if out == nil {
		i.output = nil
		i.stats.nullOutputs.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":      "Instance.Render",
			"instance":      i.name,
			"provider":      i.loaded.String(),
			"provider_name": i.backend.Name(),
		}).Errorf("Provider '%s' did not return a result.", i.loaded)
		return nil, metrics.ReasonNullOutput
	}

	i.output = out
	i.dirty.Store(false)
	return out, ""
}

// bypass tells the host to skip this filter for the current frame.
func (i *Instance) bypass(reason string) {
	i.stats.bypassed.Add(1)
	i.recorder.RecordFrame(context.Background(), "", metrics.OutcomeBypassed, reason)
	i.host.SkipVideoFilter()
}
