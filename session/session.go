// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/pulse/auth"
	"github.com/danielhkuo/pulse/telemetry"
)

// Token is a session token for one item.
type Token struct {
	Value string
	// Resumable is false when the token could not be persisted; the session
	// will not be recognised on a later visit.
	Resumable bool
}

// Provider hands out one token per (browsing context, item).
type Provider struct {
	storage  Storage
	fallback *MemoryStorage
	salt     string
	metrics  *telemetry.Instruments
}

// NewProvider builds a Provider over storage. Process-local fallback tokens
// expire after ttl of inactivity, the same as stored ones.
func NewProvider(storage Storage, salt string, ttl time.Duration, metrics *telemetry.Instruments) *Provider {
	return &Provider{
		storage:  storage,
		fallback: NewMemoryStorage(ttl),
		salt:     salt,
		metrics:  metrics,
	}
}

// GetOrCreate returns the token already issued to browsingContext for
// itemID, minting one on first use. When storage fails it falls back to a
// process-local token marked non-resumable. The only error is a failure to
// generate randomness.
func (p *Provider) GetOrCreate(ctx context.Context, browsingContext, itemID string) (Token, error) {
	if browsingContext == "" {
		token, err := auth.GenerateSessionToken(itemID, p.salt)
		if err != nil {
			return Token{}, err
		}
		p.metrics.RecordSession(ctx, false)
		return Token{Value: token}, nil
	}

	existing, err := p.storage.Get(ctx, browsingContext, itemID)
	if err == nil {
		p.metrics.RecordSession(ctx, true)
		return Token{Value: existing, Resumable: true}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return p.fromFallback(ctx, browsingContext, itemID, err)
	}

	token, err := auth.GenerateSessionToken(itemID, p.salt)
	if err != nil {
		return Token{}, err
	}
	stored, err := p.storage.SetIfAbsent(ctx, browsingContext, itemID, token)
	if err != nil {
		return p.fromFallback(ctx, browsingContext, itemID, err)
	}
	p.metrics.RecordSession(ctx, true)
	return Token{Value: stored, Resumable: true}, nil
}

func (p *Provider) fromFallback(ctx context.Context, browsingContext, itemID string, cause error) (Token, error) {
	slog.Warn("session storage unavailable, using process-local token",
		"item_id", itemID, "error", cause)

	if token, err := p.fallback.Get(ctx, browsingContext, itemID); err == nil {
		p.metrics.RecordSession(ctx, false)
		return Token{Value: token}, nil
	}
	token, err := auth.GenerateSessionToken(itemID, p.salt)
	if err != nil {
		return Token{}, err
	}
	stored, _ := p.fallback.SetIfAbsent(ctx, browsingContext, itemID, token)
	p.metrics.RecordSession(ctx, false)
	return Token{Value: stored}, nil
}
