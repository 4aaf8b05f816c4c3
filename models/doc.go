// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types for the API.

# Engagement Items

An Item is one of three variants sharing an identity and lifecycle envelope:

  - poll: Poll holds the question, ordered options, and the multi-select flag
  - survey: Questions holds ordered scale or free_text questions
  - feedback: Questions as for surveys, grouped by Category

Items move through draft → published → closed. Only published items accept
responses; a published item past its ClosesAt deadline counts as closed.

# Records

  - ResponseRecord: one session's complete answer to one item
  - QuestionResponseRecord: one session's answer to one feedback question
  - Payload: selected option IDs (poll) or question_id → Answer (survey, feedback)

Session tokens are tagged json:"-" and never leave the server in a record.

# Tallies

Tally carries view, response, and like counters plus per-option votes and
per-question answer counts, with percentages filled in for display.

# Constants

Status values:

	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"

Submit outcomes:

	OutcomeAccepted         = "accepted"
	OutcomeAlreadyResponded = "already_responded"
	OutcomeRejected         = "rejected"
*/
package models
