// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/pulse/models"
)

// Free-text answers longer than this are rejected
const maxTextLength = 5000

// Validate checks that payload is a complete response to item. It returns a
// *ValidationError for the first unmet requirement, checking questions in
// item order, and never accepts part of a payload.
func Validate(item models.Item, payload models.Payload) error {
	switch item.Variant {
	case models.VariantPoll:
		return validatePoll(item, payload)
	case models.VariantSurvey, models.VariantFeedback:
		return validateQuestions(item, payload)
	}
	return invalid("variant", fmt.Sprintf("unsupported variant %q", item.Variant))
}

func validatePoll(item models.Item, payload models.Payload) error {
	if item.Poll == nil || len(item.Poll.Options) == 0 {
		return invalid("options", "poll has no options")
	}
	if len(payload.Answers) > 0 {
		return invalid("answers", "polls take selected options, not answers")
	}
	if len(payload.Selected) == 0 {
		return invalid("selected", "select at least one option")
	}
	if !item.Poll.MultiSelect && len(payload.Selected) > 1 {
		return invalid("selected", "select exactly one option")
	}

	seen := make(map[string]bool, len(payload.Selected))
	for _, id := range payload.Selected {
		if !item.Poll.HasOption(id) {
			return invalid("selected", fmt.Sprintf("unknown option %q", id))
		}
		if seen[id] {
			return invalid("selected", fmt.Sprintf("option %q selected more than once", id))
		}
		seen[id] = true
	}
	return nil
}

func validateQuestions(item models.Item, payload models.Payload) error {
	if len(item.Questions) == 0 {
		return invalid("questions", "item has no questions")
	}
	if len(payload.Selected) > 0 {
		return invalid("selected", "answer the questions instead of selecting options")
	}

	for _, q := range item.Questions {
		answer, ok := payload.Answers[q.ID]
		if !ok {
			return invalid("answers."+q.ID, "answer required")
		}
		if err := ValidateAnswer(q, answer); err != nil {
			return err
		}
	}

	// Unknown keys are reported in a stable order
	var unknown []string
	for id := range payload.Answers {
		if _, ok := item.Question(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return invalid("answers."+unknown[0], "unknown question")
	}
	return nil
}

// ValidateAnswer checks a single answer against its question.
func ValidateAnswer(q models.Question, a models.Answer) error {
	field := "answers." + q.ID
	if a.IsEmpty() {
		return invalid(field, "answer required")
	}
	if a.Scale != nil && a.Text != nil {
		return invalid(field, "answer must be either a scale value or text")
	}

	switch q.Kind {
	case models.KindScale:
		if a.Scale == nil {
			return invalid(field, "expected a scale value")
		}
		if *a.Scale < q.Min || *a.Scale > q.Max {
			return invalid(field, fmt.Sprintf("must be between %d and %d", q.Min, q.Max))
		}
	case models.KindFreeText:
		if a.Text == nil {
			return invalid(field, "expected text")
		}
		if utf8.RuneCountInString(strings.TrimSpace(*a.Text)) > maxTextLength {
			return invalid(field, fmt.Sprintf("must be at most %d characters", maxTextLength))
		}
	default:
		return invalid(field, fmt.Sprintf("unsupported question kind %q", q.Kind))
	}
	return nil
}
