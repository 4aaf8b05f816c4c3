// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/tally"
	"github.com/danielhkuo/pulse/telemetry"
)

type Config struct {
	// SubmitRetries is how many times a write is retried after a transient
	// storage failure.
	SubmitRetries int
	RetryInterval time.Duration
	Metrics       *telemetry.Instruments
	Now           func() time.Time
}

// Engine coordinates session-scoped, at-most-once writes and the tallies
// that follow them.
type Engine struct {
	store         store.Store
	tally         *tally.Maintainer
	metrics       *telemetry.Instruments
	retries       int
	retryInterval time.Duration
	now           func() time.Time
}

func New(s store.Store, t *tally.Maintainer, cfg Config) *Engine {
	e := &Engine{
		store:         s,
		tally:         t,
		metrics:       cfg.Metrics,
		retries:       max(cfg.SubmitRetries, 0),
		retryInterval: cfg.RetryInterval,
		now:           cfg.Now,
	}
	if e.retryInterval <= 0 {
		e.retryInterval = 50 * time.Millisecond
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

// Item loads an item definition.
func (e *Engine) Item(ctx context.Context, itemID string) (models.Item, error) {
	item, err := e.store.GetItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Item{}, ErrItemNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("load item %s: %w", itemID, err)
	}
	return item, nil
}

// checkWritable reports why item refuses writes at now, if it does.
func checkWritable(item models.Item, now time.Time) (reason string, err error) {
	switch {
	case item.IsClosed(now):
		return models.ReasonClosed, ErrItemClosed
	case item.Status != models.StatusPublished:
		return models.ReasonNotPublished, ErrItemNotPublished
	}
	return "", nil
}

// withRetry runs op until it succeeds, fails with a non-transient error,
// or the retry budget is spent.
func withRetry[T any](ctx context.Context, e *Engine, op string, fn func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.retryInterval
	bo.MaxInterval = 20 * e.retryInterval

	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil || !store.IsRetryable(err) || attempt >= e.retries {
			return result, err
		}

		wait := bo.NextBackOff()
		slog.Warn("transient storage failure, retrying",
			"op", op, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return result, errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
	}
}
