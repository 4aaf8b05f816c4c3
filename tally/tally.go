// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/telemetry"
)

// Maintainer owns every mutation of tally counters.
type Maintainer struct {
	store   store.Store
	metrics *telemetry.Instruments

	// A deferred Maintainer holds metrics in pending until Flush.
	deferred bool
	pending  []change
}

type change struct {
	counter string
	delta   int64
}

func NewMaintainer(s store.Store, metrics *telemetry.Instruments) *Maintainer {
	return &Maintainer{store: s, metrics: metrics}
}

// With returns a Maintainer that writes through s, typically a transaction.
// Its metrics are held until Flush, so a rolled back transaction records
// nothing. The returned Maintainer is not safe for concurrent use.
func (m *Maintainer) With(s store.Store) *Maintainer {
	return &Maintainer{store: s, metrics: m.metrics, deferred: true}
}

// Flush records the metrics held since With. Call it once the transaction
// has committed.
func (m *Maintainer) Flush(ctx context.Context) {
	for _, c := range m.pending {
		m.metrics.RecordTally(ctx, c.counter, c.delta)
	}
	m.pending = nil
}

func (m *Maintainer) record(ctx context.Context, counter string, delta int64) {
	if m.deferred {
		m.pending = append(m.pending, change{counter: counter, delta: delta})
		return
	}
	m.metrics.RecordTally(ctx, counter, delta)
}

func (m *Maintainer) IncrementResponse(ctx context.Context, itemID string) error {
	if err := m.store.IncrementItemCounter(ctx, itemID, store.CounterResponses, 1); err != nil {
		return err
	}
	m.record(ctx, string(store.CounterResponses), 1)
	return nil
}

func (m *Maintainer) IncrementOptionVote(ctx context.Context, itemID, optionID string) error {
	if err := m.store.IncrementOptionVotes(ctx, itemID, optionID, 1); err != nil {
		return err
	}
	m.record(ctx, "vote_count", 1)
	return nil
}

// IncrementView is best effort; callers log failures and move on.
func (m *Maintainer) IncrementView(ctx context.Context, itemID string) error {
	if err := m.store.IncrementItemCounter(ctx, itemID, store.CounterViews, 1); err != nil {
		return err
	}
	m.record(ctx, string(store.CounterViews), 1)
	return nil
}

func (m *Maintainer) IncrementQuestionAnswer(ctx context.Context, itemID, questionID string) error {
	if err := m.store.IncrementQuestionAnswers(ctx, itemID, questionID, 1); err != nil {
		return err
	}
	m.record(ctx, "answer_count", 1)
	return nil
}

// RecordResponse applies the counters for one newly inserted response:
// the response count, one vote per selected poll option, and one answer
// per survey question.
func (m *Maintainer) RecordResponse(ctx context.Context, item models.Item, payload models.Payload) error {
	if err := m.IncrementResponse(ctx, item.ID); err != nil {
		return err
	}
	switch item.Variant {
	case models.VariantPoll:
		for _, optionID := range payload.Selected {
			if err := m.IncrementOptionVote(ctx, item.ID, optionID); err != nil {
				return err
			}
		}
	case models.VariantSurvey:
		for _, questionID := range item.QuestionIDs() {
			if _, ok := payload.Answers[questionID]; !ok {
				continue
			}
			if err := m.IncrementQuestionAnswer(ctx, item.ID, questionID); err != nil {
				return err
			}
		}
	}
	// Feedback answers are counted as each question row is inserted
	return nil
}

// ToggleLike sets the like state of liker on an item. The like count moves
// only when the like row actually changed, so repeating a toggle is a no-op.
func (m *Maintainer) ToggleLike(ctx context.Context, itemID, liker string, on bool) (bool, error) {
	var (
		changed bool
		delta   int64 = 1
	)
	err := m.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		if on {
			err = tx.InsertLike(ctx, itemID, liker)
			if errors.Is(err, store.ErrAlreadyExists) {
				return nil
			}
		} else {
			delta = -1
			err = tx.DeleteLike(ctx, itemID, liker)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
		}
		if err != nil {
			return err
		}
		if err := tx.IncrementItemCounter(ctx, itemID, store.CounterLikes, delta); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	if changed {
		m.record(ctx, string(store.CounterLikes), delta)
	}
	return changed, nil
}

// Results returns the item's tallies with percentages. Options are listed
// in the item's order, including options nobody picked.
func (m *Maintainer) Results(ctx context.Context, item models.Item) (models.Tally, error) {
	raw, err := m.store.GetTally(ctx, item.ID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("load tally: %w", err)
	}

	result := models.Tally{
		ItemID:        item.ID,
		ViewCount:     raw.ViewCount,
		ResponseCount: raw.ResponseCount,
		LikeCount:     raw.LikeCount,
	}

	if item.Poll != nil {
		votes := make(map[string]int64, len(raw.Options))
		for _, o := range raw.Options {
			votes[o.OptionID] = o.Votes
		}
		for _, o := range item.Poll.Options {
			result.Options = append(result.Options, models.OptionTally{
				OptionID: o.ID,
				Label:    o.Label,
				Votes:    votes[o.ID],
				Percent:  Percentage(votes[o.ID], raw.ResponseCount),
			})
		}
	}

	if len(item.Questions) > 0 {
		answers := make(map[string]int64, len(raw.Questions))
		var engaged int64
		for _, q := range raw.Questions {
			answers[q.QuestionID] = q.Answers
			engaged = max(engaged, q.Answers)
		}
		// Feedback answers can be stored before the final submit, so the
		// most answered question may exceed the response count
		base := max(engaged, raw.ResponseCount)
		for _, q := range item.Questions {
			result.Questions = append(result.Questions, models.QuestionTally{
				QuestionID: q.ID,
				Answers:    answers[q.ID],
				Percent:    Percentage(answers[q.ID], base),
			})
		}
	}

	return result, nil
}

// Percentage returns votes / max(total, 1) * 100.
func Percentage(votes, total int64) float64 {
	return float64(votes) / float64(max(total, 1)) * 100
}
