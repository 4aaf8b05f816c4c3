// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strings"
	"time"
)

// Item status constants
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"
)

// Item variants
const (
	VariantPoll     = "poll"
	VariantSurvey   = "survey"
	VariantFeedback = "feedback"
)

// Question kinds
const (
	KindScale    = "scale"
	KindFreeText = "free_text"
)

// Submit outcomes
const (
	OutcomeAccepted         = "accepted"
	OutcomeAlreadyResponded = "already_responded"
	OutcomeRejected         = "rejected"
)

// Rejection reasons
const (
	ReasonClosed       = "closed"
	ReasonNotPublished = "not_published"
	ReasonValidation   = "validation"
)

// Domain types

type Item struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Variant   string     `json:"variant" yaml:"variant"`
	Status    string     `json:"status" yaml:"status"`
	ClosesAt  *time.Time `json:"closes_at,omitempty" yaml:"closes_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"-"`

	// Poll is set for the poll variant only.
	Poll *PollSpec `json:"poll,omitempty" yaml:"poll,omitempty"`
	// Questions is set for the survey and feedback variants.
	Questions []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// AcceptsResponses reports whether writes are allowed at the given instant.
// A published item past its deadline counts as closed.
func (i Item) AcceptsResponses(now time.Time) bool {
	if i.Status != StatusPublished {
		return false
	}
	return i.ClosesAt == nil || now.Before(*i.ClosesAt)
}

// IsClosed reports whether the item is closed, either explicitly or by deadline.
func (i Item) IsClosed(now time.Time) bool {
	if i.Status == StatusClosed {
		return true
	}
	return i.Status == StatusPublished && i.ClosesAt != nil && !now.Before(*i.ClosesAt)
}

// Question returns the question with the given ID.
func (i Item) Question(id string) (Question, bool) {
	for _, q := range i.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionIDs returns question IDs in display order.
func (i Item) QuestionIDs() []string {
	ids := make([]string, 0, len(i.Questions))
	for _, q := range i.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

type PollSpec struct {
	Question    string   `json:"question" yaml:"question"`
	MultiSelect bool     `json:"multi_select" yaml:"multi_select"`
	Options     []Option `json:"options" yaml:"options"`
}

// HasOption reports whether optionID belongs to the poll.
func (p PollSpec) HasOption(optionID string) bool {
	for _, o := range p.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

type Question struct {
	ID     string `json:"id" yaml:"id"`
	Prompt string `json:"prompt" yaml:"prompt"`
	Kind   string `json:"kind" yaml:"kind"`
	// Min and Max bound scale answers (inclusive).
	Min int `json:"min,omitempty" yaml:"min,omitempty"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
	// Category groups feedback questions.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Answer holds exactly one of a scale value or free text.
type Answer struct {
	Scale *int    `json:"scale,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// IsEmpty reports whether the answer carries no usable value.
func (a Answer) IsEmpty() bool {
	return a.Scale == nil && (a.Text == nil || strings.TrimSpace(*a.Text) == "")
}

// Payload is a candidate or persisted response.
// Polls use Selected; surveys and feedback forms use Answers (question_id -> answer).
type Payload struct {
	Selected []string          `json:"selected,omitempty"`
	Answers  map[string]Answer `json:"answers,omitempty"`
}

type ResponseRecord struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	SessionToken string    `json:"-"` // Never expose in JSON
	Payload      Payload   `json:"payload"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type QuestionResponseRecord struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	QuestionID   string    `json:"question_id"`
	SessionToken string    `json:"-"` // Never expose in JSON
	Answer       Answer    `json:"answer"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// CompletionState is what a session sees when it (re)loads an item.
type CompletionState struct {
	Completed bool     `json:"completed"`
	Payload   *Payload `json:"payload,omitempty"`
	// Answers holds per-question answers already stored for feedback items,
	// present even when Completed is false.
	Answers map[string]Answer `json:"answers,omitempty"`
}

// Tally types

type Tally struct {
	ItemID        string          `json:"item_id"`
	ViewCount     int64           `json:"view_count"`
	ResponseCount int64           `json:"response_count"`
	LikeCount     int64           `json:"like_count"`
	Options       []OptionTally   `json:"options,omitempty"`
	Questions     []QuestionTally `json:"questions,omitempty"`
}

type OptionTally struct {
	OptionID string  `json:"option_id"`
	Label    string  `json:"label"`
	Votes    int64   `json:"votes"`
	Percent  float64 `json:"percent"`
}

type QuestionTally struct {
	QuestionID string  `json:"question_id"`
	Answers    int64   `json:"answers"`
	Percent    float64 `json:"percent"`
}

// Request types

type SubmitRequest struct {
	Payload Payload `json:"payload"`
}

type SaveAnswerRequest struct {
	Answer Answer `json:"answer"`
}

type LikeRequest struct {
	On bool `json:"on"`
}

// Response types

type SessionResponse struct {
	ItemID       string `json:"item_id"`
	SessionToken string `json:"session_token"`
	Resumable    bool   `json:"resumable"`
}

type SubmitResponse struct {
	Outcome    string   `json:"outcome"`
	Reason     string   `json:"reason,omitempty"`
	ResponseID string   `json:"response_id,omitempty"`
	Payload    *Payload `json:"payload,omitempty"`
	Message    string   `json:"message"`
}

type SaveAnswerResponse struct {
	QuestionID string `json:"question_id"`
	Stored     bool   `json:"stored"`
}

type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Field string `json:"field,omitempty"`
	Error string `json:"error,omitempty"`
}

type LikeResponse struct {
	Liked   bool `json:"liked"`
	Changed bool `json:"changed"`
}

type ResultsResponse struct {
	Item         Item   `json:"item"`
	Tally        Tally  `json:"tally"`
	ResponseText string `json:"response_text"`
}

type StatusResponse struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
