// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/danielhkuo/pulse/auth"
	"github.com/danielhkuo/pulse/catalog"
	"github.com/danielhkuo/pulse/cliparse"
	"github.com/danielhkuo/pulse/engine"
	"github.com/danielhkuo/pulse/middleware"
	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/tally"
)

const viewTimeout = 2 * time.Second

type ItemHandler struct {
	store  store.Store
	engine *engine.Engine
	tally  *tally.Maintainer
	cfg    cliparse.Config

	// views tracks in-flight view increments
	views sync.WaitGroup
}

func NewItemHandler(deps Deps, cfg cliparse.Config) *ItemHandler {
	return &ItemHandler{store: deps.Store, engine: deps.Engine, tally: deps.Tally, cfg: cfg}
}

// GetItem handles GET /items/:id
// Drafts are only visible with the admin key. Public reads count a view.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	item, err := h.engine.Item(r.Context(), itemID)
	if err != nil {
		writeError(w, err, "get item", itemID)
		return
	}

	isAdmin := auth.ValidateAdminKey(itemID, r.Header.Get(middleware.AdminKeyHeader), h.cfg.AdminKeySalt) == nil
	if item.Status == models.StatusDraft && !isAdmin {
		middleware.ErrorResponse(w, http.StatusNotFound, engine.ErrItemNotFound.Error())
		return
	}
	if !isAdmin {
		h.countView(r.Context(), itemID)
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// countView increments the view counter in the background. Losing a view
// is acceptable, so failures are only logged.
func (h *ItemHandler) countView(ctx context.Context, itemID string) {
	h.views.Add(1)
	go func() {
		defer h.views.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewTimeout)
		defer cancel()
		if err := h.tally.IncrementView(ctx, itemID); err != nil {
			slog.Warn("view not counted", "item_id", itemID, "error", err)
		}
	}()
}

// Wait blocks until background view increments finish.
func (h *ItemHandler) Wait() {
	h.views.Wait()
}

// PublishItem handles POST /items/:id/publish
func (h *ItemHandler) PublishItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.StatusPublished)
}

// CloseItem handles POST /items/:id/close
func (h *ItemHandler) CloseItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.StatusClosed)
}

func (h *ItemHandler) transition(w http.ResponseWriter, r *http.Request, to string) {
	itemID := r.PathValue("id")

	// Validate admin key
	adminKey := r.Header.Get(middleware.AdminKeyHeader)
	if err := auth.ValidateAdminKey(itemID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	item, err := catalog.Transition(r.Context(), h.store, itemID, to)
	if errors.Is(err, catalog.ErrInvalidTransition) {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, err, "change item status", itemID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatusResponse{
		ItemID: item.ID,
		Status: item.Status,
	})
}
