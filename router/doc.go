// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Pulse API.

# Route Registration

NewRouter creates a Router (an http.ServeMux) with all endpoints:

	r := router.NewRouter(deps, cfg)

# Endpoints

Health:

	GET /health

Items:

	GET  /items/{id}         - Item definition (counts a view)
	POST /items/{id}/publish - Open for responses (X-Admin-Key)
	POST /items/{id}/close   - Stop accepting responses (X-Admin-Key)

Engagement (X-Session-Token except for session and validate):

	POST /items/{id}/session              - Get or create the session token
	GET  /items/{id}/completion           - What this session already stored
	POST /items/{id}/validate             - Dry-run validation
	POST /items/{id}/responses            - Submit once per session
	PUT  /items/{id}/answers/{questionId} - Save one feedback answer

Results:

	GET    /items/{id}/results - Tallies and percentages
	POST   /items/{id}/likes   - Like
	DELETE /items/{id}/likes   - Remove like

# Rate Limiting

Routes that write are limited per client IP at RateLimitRPS with a burst
of 10. A zero rate disables the limit.

# Shutdown

Drain waits for background view increments after the server stops.
*/
package router
