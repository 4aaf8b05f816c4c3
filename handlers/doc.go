// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Pulse API.

# Handler Types

Each handler is a struct built from the shared Deps and the config:

  - ItemHandler: item definitions, view counting, admin lifecycle
  - EngagementHandler: session tokens, completion state, validation, submits
  - ResultsHandler: tallies with percentages, likes

	deps := handlers.Deps{Store: s, Engine: eng, Tally: m, Sessions: sessions}
	items := handlers.NewItemHandler(deps, cfg)

# Item Lifecycle

Items are defined in the catalog file and move draft → published → closed:

	POST /items/{id}/publish → PublishItem
	POST /items/{id}/close   → CloseItem

Admin operations require the X-Admin-Key header. Drafts are hidden from
public reads.

# Engagement Flow

	POST /items/{id}/session              → CreateSession (sets pulse_ctx cookie)
	GET  /items/{id}/completion           → GetCompletion
	POST /items/{id}/validate             → ValidateResponse (dry run)
	POST /items/{id}/responses            → SubmitResponse
	PUT  /items/{id}/answers/{questionId} → SaveAnswer (feedback only)

Session operations require the X-Session-Token header, and the token must
have been minted for the item in the path.

Submit status codes: 201 accepted, 200 already responded (with the stored
payload), 400 invalid, 409 closed or not published, 404 unknown item,
401 bad token, 503 storage unavailable.

# Results

	GET    /items/{id}/results → GetResults
	POST   /items/{id}/likes   → Like
	DELETE /items/{id}/likes   → Unlike

Public GET /items/{id} reads count a view in the background. Call
ItemHandler.Wait during shutdown to let them finish.
*/
package handlers
