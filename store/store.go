// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/pulse/models"
)

var (
	// ErrAlreadyExists is returned when a uniqueness-guarded insert finds its key taken.
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	// ErrUnavailable marks transient storage failures that are safe to retry.
	ErrUnavailable = errors.New("storage unavailable")
)

// Counter names an item-level tally column.
type Counter string

const (
	CounterViews     Counter = "view_count"
	CounterResponses Counter = "response_count"
	CounterLikes     Counter = "like_count"
)

// Store is the storage boundary of the submission engine.
//
// Inserts of records are conditional on their composite key and report
// ErrAlreadyExists instead of a driver error. Counter updates are applied
// by the database as counter = counter + delta.
type Store interface {
	GetItem(ctx context.Context, itemID string) (models.Item, error)
	UpsertItem(ctx context.Context, item models.Item) error
	SetItemStatus(ctx context.Context, itemID, status string) error

	InsertResponse(ctx context.Context, rec models.ResponseRecord) error
	GetResponse(ctx context.Context, itemID, sessionToken string) (models.ResponseRecord, error)
	InsertQuestionResponse(ctx context.Context, rec models.QuestionResponseRecord) error
	ListQuestionResponses(ctx context.Context, itemID, sessionToken string) ([]models.QuestionResponseRecord, error)

	IncrementItemCounter(ctx context.Context, itemID string, counter Counter, delta int64) error
	IncrementOptionVotes(ctx context.Context, itemID, optionID string, delta int64) error
	IncrementQuestionAnswers(ctx context.Context, itemID, questionID string, delta int64) error
	GetTally(ctx context.Context, itemID string) (models.Tally, error)

	InsertLike(ctx context.Context, itemID, liker string) error
	DeleteLike(ctx context.Context, itemID, liker string) error

	// WithTx runs fn in a transaction. fn must only use the Store it is given.
	WithTx(ctx context.Context, fn func(Store) error) error
}

func (c Counter) valid() bool {
	switch c {
	case CounterViews, CounterResponses, CounterLikes:
		return true
	}
	return false
}
