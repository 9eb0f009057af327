package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the meter name used by Default.
const InstrumentationName = "github.com/opd-ai/denoisefx"

// Frame outcomes reported by RecordFrame.
const (
	OutcomeProcessed = "processed"
	OutcomeCached    = "cached"
	OutcomeBypassed  = "bypassed"
)

// Bypass reasons reported with OutcomeBypassed.
const (
	ReasonNotReady       = "not_ready"
	ReasonNoTarget       = "no_target"
	ReasonEmptyFrame     = "empty_frame"
	ReasonCaptureRefused = "capture_refused"
	ReasonProcessError   = "process_error"
	ReasonNullOutput     = "null_output"
)

// Switch results reported by RecordSwitch.
const (
	SwitchSucceeded = "succeeded"
	SwitchFailed    = "failed"
	SwitchSkipped   = "skipped"
)

// Recorder holds the OpenTelemetry instruments of the filter. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	frames          metric.Int64Counter
	switches        metric.Int64Counter
	switchDuration  metric.Float64Histogram
	processDuration metric.Float64Histogram
	instances       metric.Int64UpDownCounter
}

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	frames, err := meter.Int64Counter("denoisefx.frames",
		metric.WithDescription("Frames handled by filter instances, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating denoisefx.frames counter: %w", err)
	}

	switches, err := meter.Int64Counter("denoisefx.switches",
		metric.WithDescription("Provider switch tasks, by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating denoisefx.switches counter: %w", err)
	}

	switchDuration, err := meter.Float64Histogram("denoisefx.switch.duration",
		metric.WithDescription("Time spent unloading and loading providers"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating denoisefx.switch.duration histogram: %w", err)
	}

	processDuration, err := meter.Float64Histogram("denoisefx.process.duration",
		metric.WithDescription("Time spent in provider Process calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating denoisefx.process.duration histogram: %w", err)
	}

	instances, err := meter.Int64UpDownCounter("denoisefx.instances.active",
		metric.WithDescription("Number of live filter instances"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating denoisefx.instances.active counter: %w", err)
	}

	return &Recorder{
		frames:          frames,
		switches:        switches,
		switchDuration:  switchDuration,
		processDuration: processDuration,
		instances:       instances,
	}, nil
}

// Default creates a Recorder on the global meter provider.
func Default() (*Recorder, error) {
	return NewRecorder(otel.Meter(InstrumentationName))
}

// RecordFrame counts one Render call. reason is only attached to bypassed frames.
func (r *Recorder) RecordFrame(ctx context.Context, provider, outcome, reason string) {
	if r == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	}
	if outcome == OutcomeBypassed && reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	r.frames.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordProcess records the duration of a Process call.
func (r *Recorder) RecordProcess(ctx context.Context, provider string, duration time.Duration) {
	if r == nil {
		return
	}
	r.processDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordSwitch records a finished switch task.
func (r *Recorder) RecordSwitch(ctx context.Context, from, to, result string, duration time.Duration) {
	if r == nil {
		return
	}
	r.switches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("result", result),
	))
	if result != SwitchSkipped {
		r.switchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("to", to),
			attribute.String("result", result),
		))
	}
}

// InstanceOpened increments the live instance count.
func (r *Recorder) InstanceOpened(ctx context.Context) {
	if r == nil {
		return
	}
	r.instances.Add(ctx, 1)
}

// InstanceClosed decrements the live instance count.
func (r *Recorder) InstanceClosed(ctx context.Context) {
	if r == nil {
		return
	}
	r.instances.Add(ctx, -1)
}
