// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/pulse/cliparse"
	"github.com/danielhkuo/pulse/engine"
	"github.com/danielhkuo/pulse/middleware"
	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/tally"
)

type ResultsHandler struct {
	engine *engine.Engine
	tally  *tally.Maintainer
	cfg    cliparse.Config
}

func NewResultsHandler(deps Deps, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{engine: deps.Engine, tally: deps.Tally, cfg: cfg}
}

// GetResults handles GET /items/:id/results
// Returns tallies with percentages. Draft items have no public results.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	item, err := h.engine.Item(r.Context(), itemID)
	if err != nil {
		writeError(w, err, "get results", itemID)
		return
	}
	if item.Status == models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusNotFound, engine.ErrItemNotFound.Error())
		return
	}

	t, err := h.tally.Results(r.Context(), item)
	if err != nil {
		writeError(w, err, "get results", itemID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Item:         item,
		Tally:        t,
		ResponseText: responseText(t.ResponseCount),
	})
}

// responseText renders a count for display, e.g. "1,204 responses".
func responseText(n int64) string {
	return fmt.Sprintf("%s %s", humanize.Comma(n), english.PluralWord(int(n), "response", ""))
}

// Like handles POST /items/:id/likes
func (h *ResultsHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, true)
}

// Unlike handles DELETE /items/:id/likes
func (h *ResultsHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, false)
}

// toggleLike records one like per session token. Repeating the same action
// is a no-op reported with changed=false.
func (h *ResultsHandler) toggleLike(w http.ResponseWriter, r *http.Request, on bool) {
	itemID := r.PathValue("id")
	token, ok := sessionToken(w, r, itemID, h.cfg.SessionSalt)
	if !ok {
		return
	}

	item, err := h.engine.Item(r.Context(), itemID)
	if err != nil {
		writeError(w, err, "toggle like", itemID)
		return
	}
	// Likes are a reaction to a visible item, not a response, so closing an
	// item does not freeze them. Only drafts refuse.
	if item.Status == models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, engine.ErrItemNotPublished.Error())
		return
	}

	changed, err := h.tally.ToggleLike(r.Context(), item.ID, token, on)
	if err != nil {
		writeError(w, err, "toggle like", itemID)
		return
	}
	if changed {
		slog.Info("like toggled", "item_id", item.ID, "on", on)
	}

	middleware.JSONResponse(w, http.StatusOK, models.LikeResponse{
		Liked:   on,
		Changed: changed,
	})
}
