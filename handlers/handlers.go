// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/pulse/auth"
	"github.com/danielhkuo/pulse/engine"
	"github.com/danielhkuo/pulse/middleware"
	"github.com/danielhkuo/pulse/session"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/tally"
)

// Deps are the services shared by all handlers.
type Deps struct {
	Store    store.Store
	Engine   *engine.Engine
	Tally    *tally.Maintainer
	Sessions *session.Provider
}

// sessionToken reads X-Session-Token and checks it was minted for itemID.
// It writes a 401 and returns false when it was not.
func sessionToken(w http.ResponseWriter, r *http.Request, itemID, salt string) (string, bool) {
	token := r.Header.Get(middleware.SessionTokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Session-Token header required")
		return "", false
	}
	if err := auth.ValidateSessionToken(itemID, token, salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return "", false
	}
	return token, true
}

// statusFor maps engine and store errors to HTTP status codes.
func statusFor(err error) int {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrItemNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownQuestion):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrItemClosed), errors.Is(err, engine.ErrItemNotPublished):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNotFeedback):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error, logging the ones the client
// cannot fix.
func writeError(w http.ResponseWriter, err error, op, itemID string) {
	status := statusFor(err)
	switch status {
	case http.StatusServiceUnavailable:
		slog.Error(op+" failed, storage unavailable", "item_id", itemID, "error", err)
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, status, "Storage temporarily unavailable, try again")
	case http.StatusInternalServerError:
		slog.Error(op+" failed", "item_id", itemID, "error", err)
		middleware.ErrorResponse(w, status, "Internal error")
	default:
		middleware.ErrorResponse(w, status, err.Error())
	}
}
