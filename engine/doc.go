// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine implements anonymous, at-most-once submissions to
engagement items.

# Submit

Submit runs these steps, in order, for one session token:

 1. Refuse closed (or past deadline) and unpublished items.
 2. Validate the payload (Validate).
 3. Feedback only: insert each question's answer as its own unit. Rows
    already stored by an earlier attempt or by SaveAnswer are skipped.
 4. Insert the response record, guarded by UNIQUE (item_id, session_token).
 5. In the same transaction, apply the tallies for the new response.

A taken key in step 4 is the already_responded outcome, returned with the
payload stored first. Tallies never move for it.

Transient storage failures (store.ErrUnavailable) are retried with
exponential backoff. Since every step is idempotent, retrying the whole
submit is safe:

	result, err := eng.Submit(ctx, "poll-1", token, models.Payload{Selected: []string{"A"}})
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		// tell the user which field to fix
	case errors.Is(err, engine.ErrItemClosed):
		// show results instead
	case err != nil:
		// try again later
	case result.Outcome == models.OutcomeAlreadyResponded:
		// render result.Response.Payload read-only
	}

# Completion

LoadCompletion returns whether the session already responded and, for
feedback items, the answers saved per question so an interrupted form
can resume.
*/
package engine
