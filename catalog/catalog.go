// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
)

var (
	ErrInvalidDefinition = errors.New("invalid item definition")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type file struct {
	Items []models.Item `yaml:"items"`
}

// Load reads and checks item definitions from a YAML file.
func Load(path string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]models.Item, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}

	seen := make(map[string]bool, len(f.Items))
	for i := range f.Items {
		item := &f.Items[i]
		if item.Status == "" {
			item.Status = models.StatusDraft
		}
		if err := CheckDefinition(*item); err != nil {
			return nil, err
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalidDefinition, item.ID)
		}
		seen[item.ID] = true
	}
	return f.Items, nil
}

// CheckDefinition verifies an item is well formed for its variant.
func CheckDefinition(item models.Item) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: item %q: %s", ErrInvalidDefinition, item.ID, fmt.Sprintf(format, args...))
	}

	if item.ID == "" {
		return fail("id is required")
	}
	if item.Title == "" {
		return fail("title is required")
	}
	switch item.Status {
	case models.StatusDraft, models.StatusPublished, models.StatusClosed:
	default:
		return fail("unknown status %q", item.Status)
	}

	switch item.Variant {
	case models.VariantPoll:
		if item.Poll == nil || len(item.Poll.Options) < 2 {
			return fail("polls need at least two options")
		}
		if len(item.Questions) > 0 {
			return fail("polls cannot have questions")
		}
		ids := make(map[string]bool, len(item.Poll.Options))
		for _, o := range item.Poll.Options {
			if o.ID == "" || ids[o.ID] {
				return fail("option ids must be unique and non-empty")
			}
			ids[o.ID] = true
		}
	case models.VariantSurvey, models.VariantFeedback:
		if item.Poll != nil {
			return fail("only polls have options")
		}
		if len(item.Questions) == 0 {
			return fail("at least one question is required")
		}
		ids := make(map[string]bool, len(item.Questions))
		for _, q := range item.Questions {
			if q.ID == "" || ids[q.ID] {
				return fail("question ids must be unique and non-empty")
			}
			ids[q.ID] = true
			switch q.Kind {
			case models.KindScale:
				if q.Min >= q.Max {
					return fail("question %q: min must be below max", q.ID)
				}
			case models.KindFreeText:
			default:
				return fail("question %q: unknown kind %q", q.ID, q.Kind)
			}
		}
	default:
		return fail("unknown variant %q", item.Variant)
	}
	return nil
}

// Import upserts definitions. Existing items keep their status; records
// and tallies are untouched.
func Import(ctx context.Context, s store.Store, items []models.Item) error {
	for _, item := range items {
		if err := s.UpsertItem(ctx, item); err != nil {
			return fmt.Errorf("import item %s: %w", item.ID, err)
		}
	}
	slog.Info("items imported", "count", len(items))
	return nil
}

// Transition moves an item along draft -> published -> closed. Moving to
// the current status is a no-op.
func Transition(ctx context.Context, s store.Store, itemID, to string) (models.Item, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	if item.Status == to {
		return item, nil
	}

	allowed := (item.Status == models.StatusDraft && to == models.StatusPublished) ||
		(item.Status == models.StatusPublished && to == models.StatusClosed)
	if !allowed {
		return models.Item{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, to)
	}

	if err := s.SetItemStatus(ctx, itemID, to); err != nil {
		return models.Item{}, err
	}
	slog.Info("item status changed", "item_id", itemID, "from", item.Status, "to", to)
	item.Status = to
	return item, nil
}
