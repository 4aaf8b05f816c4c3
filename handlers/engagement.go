// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/pulse/cliparse"
	"github.com/danielhkuo/pulse/engine"
	"github.com/danielhkuo/pulse/middleware"
	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/session"
)

type EngagementHandler struct {
	engine   *engine.Engine
	sessions *session.Provider
	cfg      cliparse.Config
}

func NewEngagementHandler(deps Deps, cfg cliparse.Config) *EngagementHandler {
	return &EngagementHandler{engine: deps.Engine, sessions: deps.Sessions, cfg: cfg}
}

// CreateSession handles POST /items/:id/session
// Returns the token already issued to this browsing context, or a new one.
func (h *EngagementHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	item, err := h.engine.Item(r.Context(), itemID)
	if err != nil {
		writeError(w, err, "create session", itemID)
		return
	}
	if item.Status == models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusNotFound, engine.ErrItemNotFound.Error())
		return
	}

	contextID := middleware.BrowsingContext(w, r)
	token, err := h.sessions.GetOrCreate(r.Context(), contextID, item.ID)
	if err != nil {
		slog.Error("failed to issue session token", "item_id", itemID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{
		ItemID:       item.ID,
		SessionToken: token.Value,
		Resumable:    token.Resumable,
	})
}

// GetCompletion handles GET /items/:id/completion
func (h *EngagementHandler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	token, ok := sessionToken(w, r, itemID, h.cfg.SessionSalt)
	if !ok {
		return
	}

	state, err := h.engine.LoadCompletion(r.Context(), itemID, token)
	if err != nil {
		writeError(w, err, "load completion", itemID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, state)
}

// ValidateResponse handles POST /items/:id/validate
// A dry run of the submit checks; nothing is stored.
func (h *EngagementHandler) ValidateResponse(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	var req models.SubmitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.engine.Item(r.Context(), itemID)
	if err != nil {
		writeError(w, err, "validate", itemID)
		return
	}

	resp := models.ValidateResponse{Valid: true}
	var verr *engine.ValidationError
	if err := engine.Validate(item, req.Payload); errors.As(err, &verr) {
		resp = models.ValidateResponse{Field: verr.Field, Error: verr.Reason}
	} else if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SubmitResponse handles POST /items/:id/responses
// The first submit per session is stored (201); repeats return the stored
// payload (200) and change nothing.
func (h *EngagementHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	token, ok := sessionToken(w, r, itemID, h.cfg.SessionSalt)
	if !ok {
		return
	}

	var req models.SubmitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.engine.Submit(r.Context(), itemID, token, req.Payload)
	if result.Outcome == models.OutcomeRejected {
		middleware.JSONResponse(w, statusFor(err), models.SubmitResponse{
			Outcome: result.Outcome,
			Reason:  result.Reason,
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, err, "submit", itemID)
		return
	}

	status := http.StatusCreated
	message := "Response recorded"
	if result.Outcome == models.OutcomeAlreadyResponded {
		status = http.StatusOK
		message = "Response already recorded"
	}
	middleware.JSONResponse(w, status, models.SubmitResponse{
		Outcome:    result.Outcome,
		ResponseID: result.Response.ID,
		Payload:    &result.Response.Payload,
		Message:    message,
	})
}

// SaveAnswer handles PUT /items/:id/answers/:questionId
// Stores one feedback answer ahead of the final submit.
func (h *EngagementHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	questionID := r.PathValue("questionId")
	token, ok := sessionToken(w, r, itemID, h.cfg.SessionSalt)
	if !ok {
		return
	}

	var req models.SaveAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	stored, err := h.engine.SaveAnswer(r.Context(), itemID, token, questionID, req.Answer)
	if err != nil {
		writeError(w, err, "save answer", itemID)
		return
	}

	status := http.StatusOK
	if stored {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.SaveAnswerResponse{
		QuestionID: questionID,
		Stored:     stored,
	})
}
