package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/metrics"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/sirupsen/logrus"
)

// switchRequest is the payload of a switch task.
type switchRequest struct {
	seq  uint64
	from provider.Kind
	to   provider.Kind
}

// requestSwitchLocked retargets the instance to kind and queues the task that
// performs the unload/load. Caller holds i.mu.
func (i *Instance) requestSwitchLocked(kind provider.Kind) {
	logrus.WithFields(logrus.Fields{
		"function": "Instance.requestSwitch",
		"instance": i.name,
		"from":     i.kind.String(),
		"to":       kind.String(),
	}).Info("Instance is switching provider")

	if i.task != nil && i.switchState == SwitchQueued {
		if i.runner.Cancel(i.task) {
			logrus.WithFields(logrus.Fields{
				"function": "Instance.requestSwitch",
				"instance": i.name,
				"task_id":  i.task.ID(),
			}).Debug("Cancelled superseded switch task")
		}
	}

	req := switchRequest{from: i.kind, to: kind}
	i.switchSeq++
	req.seq = i.switchSeq

	i.kind = kind
	i.ready.Store(false)
	i.switchState = SwitchQueued
	i.task = i.runner.Enqueue(i, req, i.runSwitch)

	if i.task.State() == interfaces.TaskCancelled {
		i.switchState = SwitchDone
		i.stats.switchFailed.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "Instance.requestSwitch",
			"instance": i.name,
			"to":       kind.String(),
		}).Error("Task runner rejected provider switch")
	}
}

// runSwitch is the body of a switch task. It always converges on the kind that
// is current when it acquires the lock, so a late task never resurrects a
// superseded request.
func (i *Instance) runSwitch(payload any) {
	req, ok := payload.(switchRequest)
	if !ok {
		return
	}
	start := time.Now()

	i.mu.Lock()
	defer i.mu.Unlock()

	latest := req.seq == i.switchSeq
	if latest {
		i.switchState = SwitchRunning
		defer func() { i.switchState = SwitchDone }()
	}

	if i.closed {
		logrus.WithFields(logrus.Fields{
			"function": "Instance.runSwitch",
			"instance": i.name,
			"to":       req.to.String(),
		}).Debug("Instance closed, skipping provider switch")
		i.recorder.RecordSwitch(context.Background(), req.from.String(), req.to.String(), metrics.SwitchSkipped, 0)
		return
	}

	old := i.loaded
	target := i.kind

	if old == target {
		// A later request returned to the loaded kind before this task ran.
		i.ready.Store(true)
		i.recorder.RecordSwitch(context.Background(), old.String(), target.String(), metrics.SwitchSkipped, 0)
		return
	}

	i.ready.Store(false)
	if err := i.swapBackendLocked(target); err != nil {
		i.stats.switchFailed.Add(1)
		i.recorder.RecordSwitch(context.Background(), old.String(), target.String(), metrics.SwitchFailed, time.Since(start))
		logrus.WithFields(logrus.Fields{
			"function": "Instance.runSwitch",
			"instance": i.name,
			"old":      old.String(),
			"new":      target.String(),
			"error":    err.Error(),
		}).Error("Instance failed switching provider")
		return
	}

	i.ready.Store(true)
	i.dirty.Store(true)
	i.stats.switchSucceeded.Add(1)
	i.recorder.RecordSwitch(context.Background(), old.String(), target.String(), metrics.SwitchSucceeded, time.Since(start))

	logrus.WithFields(logrus.Fields{
		"function": "Instance.runSwitch",
		"instance": i.name,
		"old":      old.String(),
		"new":      target.String(),
		"elapsed":  time.Since(start).String(),
	}).Info("Instance switched provider")
}

// swapBackendLocked unloads the current backend and loads one for target.
// On failure nothing is loaded. Caller holds i.mu.
func (i *Instance) swapBackendLocked(target provider.Kind) error {
	if i.backend != nil {
		i.unloadLocked()
	}
	if !target.IsConcrete() {
		i.loaded = target
		return nil
	}

	b, err := i.registry.New(target)
	if err != nil {
		return err
	}
	if err := safeLoad(b); err != nil {
		return fmt.Errorf("loading %s: %w", target, err)
	}
	i.backend = b
	i.loaded = target

	if err := safeConfigure(b, i.settings.Params()); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Instance.swapBackend",
			"instance": i.name,
			"provider": target.String(),
			"error":    err.Error(),
		}).Warn("Provider rejected settings after load")
	}
	return nil
}

// unloadLocked releases the loaded backend exactly once. Any buffer it
// returned is dropped with it. Caller holds i.mu.
func (i *Instance) unloadLocked() {
	b := i.backend
	kind := i.loaded
	i.backend = nil
	i.loaded = provider.Invalid
	i.output = nil
	i.dirty.Store(true)

	if err := safeUnload(b); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Instance.unload",
			"instance": i.name,
			"provider": kind.String(),
			"error":    err.Error(),
		}).Error("Provider failed to unload")
	}
}
