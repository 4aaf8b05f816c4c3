// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments groups the engine's metrics. A nil *Instruments records nothing.
type Instruments struct {
	submits        metric.Int64Counter
	submitDuration metric.Float64Histogram
	tally          metric.Int64UpDownCounter
	sessions       metric.Int64Counter
}

func NewInstruments(meter metric.Meter) (*Instruments, error) {
	submits, err := meter.Int64Counter("pulse_submits_total",
		metric.WithDescription("Submissions by variant and outcome"),
		metric.WithUnit("{submission}"))
	if err != nil {
		return nil, fmt.Errorf("submits counter: %w", err)
	}
	submitDuration, err := meter.Float64Histogram("pulse_submit_duration",
		metric.WithDescription("Submit latency including retries"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("submit histogram: %w", err)
	}
	// Unlikes move the like count down, so this is not monotonic
	tally, err := meter.Int64UpDownCounter("pulse_tally_changes",
		metric.WithDescription("Net counter changes committed by the tally maintainer"),
		metric.WithUnit("{change}"))
	if err != nil {
		return nil, fmt.Errorf("tally counter: %w", err)
	}
	sessions, err := meter.Int64Counter("pulse_session_tokens_total",
		metric.WithDescription("Session tokens handed out by resumability"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, fmt.Errorf("sessions counter: %w", err)
	}
	return &Instruments{
		submits:        submits,
		submitDuration: submitDuration,
		tally:          tally,
		sessions:       sessions,
	}, nil
}

func (i *Instruments) RecordSubmit(ctx context.Context, variant, outcome, reason string, elapsed time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	)
	i.submits.Add(ctx, 1, attrs)
	i.submitDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

func (i *Instruments) RecordTally(ctx context.Context, counter string, delta int64) {
	if i == nil {
		return
	}
	i.tally.Add(ctx, delta, metric.WithAttributes(attribute.String("counter", counter)))
}

func (i *Instruments) RecordSession(ctx context.Context, resumable bool) {
	if i == nil {
		return
	}
	i.sessions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("resumable", resumable)))
}
