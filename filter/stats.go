package filter

import "sync/atomic"

// Stats is a snapshot of an instance's counters.
type Stats struct {
	Processed       uint64
	Cached          uint64
	Bypassed        uint64
	CaptureRefusals uint64
	ProcessErrors   uint64
	NullOutputs     uint64
	SwitchSucceeded uint64
	SwitchFailed    uint64
}

type counters struct {
	processed       atomic.Uint64
	cached          atomic.Uint64
	bypassed        atomic.Uint64
	captureRefusals atomic.Uint64
	processErrors   atomic.Uint64
	nullOutputs     atomic.Uint64
	switchSucceeded atomic.Uint64
	switchFailed    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Processed:       c.processed.Load(),
		Cached:          c.cached.Load(),
		Bypassed:        c.bypassed.Load(),
		CaptureRefusals: c.captureRefusals.Load(),
		ProcessErrors:   c.processErrors.Load(),
		NullOutputs:     c.nullOutputs.Load(),
		SwitchSucceeded: c.switchSucceeded.Load(),
		SwitchFailed:    c.switchFailed.Load(),
	}
}
