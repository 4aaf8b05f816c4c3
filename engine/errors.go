// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import "errors"

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrItemClosed       = errors.New("item is closed")
	ErrItemNotPublished = errors.New("item is not published")
	ErrNotFeedback      = errors.New("item does not take per-question answers")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrMissingToken     = errors.New("session token required")
)

// ValidationError names the first requirement a payload does not meet.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
