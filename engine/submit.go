// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/danielhkuo/pulse/auth"
	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/tally"
)

// Result is the outcome of a submit.
type Result struct {
	Outcome string
	// Reason is set for rejected submits.
	Reason string
	// Response is the newly stored record when accepted, or the record
	// stored by the earlier submit when already responded.
	Response models.ResponseRecord
	// NewAnswers counts question rows written by this call (feedback only).
	NewAnswers int
}

// Submit stores the session's response to an item at most once.
//
// A closed, unpublished, or invalid submit returns a rejected Result along
// with ErrItemClosed, ErrItemNotPublished, or a *ValidationError. A repeated
// submit is not an error: it returns the already_responded outcome and the
// payload stored the first time. Transient storage failures are retried;
// every step is idempotent so the whole submit can run again.
func (e *Engine) Submit(ctx context.Context, itemID, token string, payload models.Payload) (Result, error) {
	if token == "" {
		return Result{}, ErrMissingToken
	}
	start := e.now()

	var variant string
	result, err := withRetry(ctx, e, "submit", func() (Result, error) {
		item, err := e.Item(ctx, itemID)
		if err != nil {
			return Result{}, err
		}
		variant = item.Variant
		return e.submit(ctx, item, token, payload)
	})

	if result.Outcome != "" {
		e.metrics.RecordSubmit(ctx, variant, result.Outcome, result.Reason, e.now().Sub(start))
	}
	return result, err
}

func (e *Engine) submit(ctx context.Context, item models.Item, token string, payload models.Payload) (Result, error) {
	if reason, err := checkWritable(item, e.now()); err != nil {
		return Result{Outcome: models.OutcomeRejected, Reason: reason}, err
	}
	if err := Validate(item, payload); err != nil {
		return Result{Outcome: models.OutcomeRejected, Reason: models.ReasonValidation}, err
	}

	// Each question row is its own unit; rows from an interrupted earlier
	// attempt are skipped and only the gaps are written.
	newAnswers := 0
	if item.Variant == models.VariantFeedback {
		for _, q := range item.Questions {
			inserted, err := e.storeAnswer(ctx, item.ID, token, q.ID, payload.Answers[q.ID])
			if err != nil {
				return Result{}, err
			}
			if inserted {
				newAnswers++
			}
		}
		// An answer saved earlier wins over the submitted one; the record
		// carries what the question rows hold.
		stored, err := e.storedAnswers(ctx, item, token)
		if err != nil {
			return Result{}, err
		}
		payload = models.Payload{Answers: stored}
	}

	rec := models.ResponseRecord{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		SessionToken: token,
		Payload:      payload,
		SubmittedAt:  e.now(),
	}
	var counted *tally.Maintainer
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.InsertResponse(ctx, rec); err != nil {
			return err
		}
		counted = e.tally.With(tx)
		return counted.RecordResponse(ctx, item, payload)
	})

	if errors.Is(err, store.ErrAlreadyExists) {
		existing, err := e.store.GetResponse(ctx, item.ID, token)
		if err != nil {
			return Result{}, fmt.Errorf("load stored response: %w", err)
		}
		slog.Info("response already recorded",
			"item_id", item.ID, "session", auth.TokenFingerprint(token), "response_id", existing.ID)
		return Result{Outcome: models.OutcomeAlreadyResponded, Response: existing, NewAnswers: newAnswers}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("record response: %w", err)
	}
	counted.Flush(ctx)

	slog.Info("response accepted",
		"item_id", item.ID, "variant", item.Variant, "session", auth.TokenFingerprint(token),
		"response_id", rec.ID, "new_answers", newAnswers)
	return Result{Outcome: models.OutcomeAccepted, Response: rec, NewAnswers: newAnswers}, nil
}

// SaveAnswer stores one feedback answer ahead of the final submit so answers
// survive an interrupted visit. It reports whether a new row was written;
// an answer already stored for the question is kept as is.
func (e *Engine) SaveAnswer(ctx context.Context, itemID, token, questionID string, answer models.Answer) (bool, error) {
	if token == "" {
		return false, ErrMissingToken
	}
	return withRetry(ctx, e, "save answer", func() (bool, error) {
		item, err := e.Item(ctx, itemID)
		if err != nil {
			return false, err
		}
		if _, err := checkWritable(item, e.now()); err != nil {
			return false, err
		}
		if item.Variant != models.VariantFeedback {
			return false, ErrNotFeedback
		}
		q, ok := item.Question(questionID)
		if !ok {
			return false, ErrUnknownQuestion
		}
		if err := ValidateAnswer(q, answer); err != nil {
			return false, err
		}
		return e.storeAnswer(ctx, item.ID, token, q.ID, answer)
	})
}

// storeAnswer inserts one question row and, only if it was new, counts it.
func (e *Engine) storeAnswer(ctx context.Context, itemID, token, questionID string, answer models.Answer) (bool, error) {
	rec := models.QuestionResponseRecord{
		ID:           uuid.NewString(),
		ItemID:       itemID,
		QuestionID:   questionID,
		SessionToken: token,
		Answer:       answer,
		SubmittedAt:  e.now(),
	}
	var counted *tally.Maintainer
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.InsertQuestionResponse(ctx, rec); err != nil {
			return err
		}
		counted = e.tally.With(tx)
		return counted.IncrementQuestionAnswer(ctx, itemID, questionID)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store answer %s: %w", questionID, err)
	}
	counted.Flush(ctx)
	return true, nil
}

// storedAnswers returns the session's question rows for the item's current
// questions.
func (e *Engine) storedAnswers(ctx context.Context, item models.Item, token string) (map[string]models.Answer, error) {
	records, err := e.store.ListQuestionResponses(ctx, item.ID, token)
	if err != nil {
		return nil, fmt.Errorf("load question responses: %w", err)
	}
	answers := make(map[string]models.Answer, len(records))
	for _, rec := range records {
		if _, ok := item.Question(rec.QuestionID); ok {
			answers[rec.QuestionID] = rec.Answer
		}
	}
	return answers, nil
}
