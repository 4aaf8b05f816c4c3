// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/pulse/cliparse"
	"github.com/danielhkuo/pulse/handlers"
	"github.com/danielhkuo/pulse/middleware"
)

// Requests a client may fire at once before the rate limit applies
const rateLimitBurst = 10

type Router struct {
	*http.ServeMux
	items *handlers.ItemHandler
}

func NewRouter(deps handlers.Deps, cfg cliparse.Config) *Router {
	mux := http.NewServeMux()

	// Initialize handlers
	itemHandler := handlers.NewItemHandler(deps, cfg)
	engagementHandler := handlers.NewEngagementHandler(deps, cfg)
	resultsHandler := handlers.NewResultsHandler(deps, cfg)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, rateLimitBurst, cfg.SessionSalt)
	write := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(limiter.Limit(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Item definitions and admin lifecycle
	mux.HandleFunc("GET /items/{id}", middleware.WithLogging(itemHandler.GetItem))
	mux.HandleFunc("POST /items/{id}/publish", middleware.WithLogging(itemHandler.PublishItem))
	mux.HandleFunc("POST /items/{id}/close", middleware.WithLogging(itemHandler.CloseItem))

	// Engagement (public, session scoped)
	mux.HandleFunc("POST /items/{id}/session", write(engagementHandler.CreateSession))
	mux.HandleFunc("GET /items/{id}/completion", middleware.WithLogging(engagementHandler.GetCompletion))
	mux.HandleFunc("POST /items/{id}/validate", middleware.WithLogging(engagementHandler.ValidateResponse))
	mux.HandleFunc("POST /items/{id}/responses", write(engagementHandler.SubmitResponse))
	mux.HandleFunc("PUT /items/{id}/answers/{questionId}", write(engagementHandler.SaveAnswer))

	// Results and likes
	mux.HandleFunc("GET /items/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("POST /items/{id}/likes", write(resultsHandler.Like))
	mux.HandleFunc("DELETE /items/{id}/likes", write(resultsHandler.Unlike))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pulse API v1"))
	})

	return &Router{ServeMux: mux, items: itemHandler}
}

// Drain waits for background work started by requests, such as view
// counting. Call it after the server has stopped accepting requests.
func (r *Router) Drain() {
	r.items.Wait()
}
