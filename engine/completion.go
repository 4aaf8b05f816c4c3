// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
)

// LoadCompletion reports what the session already stored for an item. For
// feedback items it also returns answers saved per question, even when no
// full response exists yet. It never writes.
func (e *Engine) LoadCompletion(ctx context.Context, itemID, token string) (models.CompletionState, error) {
	if token == "" {
		return models.CompletionState{}, ErrMissingToken
	}
	item, err := e.Item(ctx, itemID)
	if err != nil {
		return models.CompletionState{}, err
	}

	var (
		state   models.CompletionState
		answers map[string]models.Answer
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec, err := e.store.GetResponse(gctx, item.ID, token)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load response: %w", err)
		}
		state.Completed = true
		state.Payload = &rec.Payload
		return nil
	})

	if item.Variant == models.VariantFeedback {
		g.Go(func() error {
			// Answers to questions no longer on the item are dropped
			var err error
			answers, err = e.storedAnswers(gctx, item, token)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return models.CompletionState{}, err
	}
	if len(answers) > 0 {
		state.Answers = answers
	}
	return state, nil
}
