// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danielhkuo/pulse/auth"
	"github.com/danielhkuo/pulse/cliparse"
	"github.com/danielhkuo/pulse/db"
	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
)

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "pulse_test.db")
	if err := db.Migrate(ctx, db.TypeSQLite, dsn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	conn, err := db.Open(ctx, db.TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// SetupTestStore returns a store over a fresh test database
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return store.New(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file:pulse_test.db",
		DatabaseType:  cliparse.DatabaseSQLite,
		AdminKeySalt:  "test-admin-salt",
		SessionSalt:   "test-session-salt",
		SessionTTL:    time.Hour,
		SubmitRetries: 2,
	}
}

// PollItem builds a poll whose option IDs equal their labels
func PollItem(id, status string, multiSelect bool, options ...string) models.Item {
	if len(options) == 0 {
		options = []string{"A", "B"}
	}
	spec := &models.PollSpec{Question: "Which one?", MultiSelect: multiSelect}
	for _, o := range options {
		spec.Options = append(spec.Options, models.Option{ID: o, Label: o})
	}
	return models.Item{ID: id, Title: "Test Poll", Variant: models.VariantPoll, Status: status, Poll: spec}
}

// SurveyItem builds a survey with one 1-5 scale question and one free-text question
func SurveyItem(id, status string) models.Item {
	return models.Item{
		ID:      id,
		Title:   "Test Survey",
		Variant: models.VariantSurvey,
		Status:  status,
		Questions: []models.Question{
			{ID: "mood", Prompt: "How are you?", Kind: models.KindScale, Min: 1, Max: 5},
			{ID: "why", Prompt: "Why?", Kind: models.KindFreeText},
		},
	}
}

// FeedbackItem builds a feedback form with n scale questions q1..qn
func FeedbackItem(id, status string, n int) models.Item {
	item := models.Item{ID: id, Title: "Test Feedback", Variant: models.VariantFeedback, Status: status}
	for i := 1; i <= n; i++ {
		item.Questions = append(item.Questions, models.Question{
			ID:       fmt.Sprintf("q%d", i),
			Prompt:   fmt.Sprintf("Question %d", i),
			Kind:     models.KindScale,
			Min:      1,
			Max:      5,
			Category: "general",
		})
	}
	return item
}

// FeedbackPayload answers every question of a FeedbackItem with value
func FeedbackPayload(item models.Item, value int) models.Payload {
	answers := make(map[string]models.Answer, len(item.Questions))
	for _, q := range item.Questions {
		v := value
		answers[q.ID] = models.Answer{Scale: &v}
	}
	return models.Payload{Answers: answers}
}

// CreateTestItem stores an item and returns its admin key
func CreateTestItem(t *testing.T, s store.Store, cfg cliparse.Config, item models.Item) string {
	t.Helper()

	if err := s.UpsertItem(context.Background(), item); err != nil {
		t.Fatalf("Failed to create test item: %v", err)
	}
	return auth.GenerateAdminKey(item.ID, cfg.AdminKeySalt)
}

// NewSessionToken mints a valid session token for an item
func NewSessionToken(t *testing.T, cfg cliparse.Config, itemID string) string {
	t.Helper()

	token, err := auth.GenerateSessionToken(itemID, cfg.SessionSalt)
	if err != nil {
		t.Fatalf("Failed to generate session token: %v", err)
	}
	return token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
