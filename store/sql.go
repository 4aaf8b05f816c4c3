// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danielhkuo/pulse/models"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by SQLStore.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store for PostgreSQL and SQLite.
type SQLStore struct {
	db DBTX
	// conn is nil inside a transaction.
	conn *sql.DB
}

func New(conn *sql.DB) *SQLStore {
	return &SQLStore{db: conn, conn: conn}
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.conn == nil {
		// Already in a transaction
		return fn(s)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// Items

func (s *SQLStore) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	var (
		item         models.Item
		pollQuestion sql.NullString
		multiSelect  bool
		closesAt     sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, variant, status, poll_question, multi_select, closes_at, created_at
		FROM item WHERE id = $1
	`, itemID).Scan(&item.ID, &item.Title, &item.Variant, &item.Status,
		&pollQuestion, &multiSelect, &closesAt, &item.CreatedAt)
	if err != nil {
		return models.Item{}, classify("get item", err)
	}
	if closesAt.Valid {
		t := closesAt.Time
		item.ClosesAt = &t
	}

	switch item.Variant {
	case models.VariantPoll:
		options, err := s.listOptions(ctx, itemID)
		if err != nil {
			return models.Item{}, err
		}
		item.Poll = &models.PollSpec{
			Question:    pollQuestion.String,
			MultiSelect: multiSelect,
			Options:     options,
		}
	default:
		questions, err := s.listQuestions(ctx, itemID)
		if err != nil {
			return models.Item{}, err
		}
		item.Questions = questions
	}

	return item, nil
}

func (s *SQLStore) listOptions(ctx context.Context, itemID string) ([]models.Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label FROM item_option WHERE item_id = $1 ORDER BY position
	`, itemID)
	if err != nil {
		return nil, classify("list options", err)
	}
	defer rows.Close()

	var options []models.Option
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.Label); err != nil {
			return nil, classify("scan option", err)
		}
		options = append(options, o)
	}
	return options, classify("list options", rows.Err())
}

func (s *SQLStore) listQuestions(ctx context.Context, itemID string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt, kind, min_value, max_value, category
		FROM item_question WHERE item_id = $1 ORDER BY position
	`, itemID)
	if err != nil {
		return nil, classify("list questions", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Kind, &q.Min, &q.Max, &q.Category); err != nil {
			return nil, classify("scan question", err)
		}
		questions = append(questions, q)
	}
	return questions, classify("list questions", rows.Err())
}

// UpsertItem writes an item definition. An existing item keeps its status;
// records and tallies are never touched.
func (s *SQLStore) UpsertItem(ctx context.Context, item models.Item) error {
	return s.WithTx(ctx, func(st Store) error {
		tx := st.(*SQLStore)

		var pollQuestion sql.NullString
		multiSelect := false
		if item.Poll != nil {
			pollQuestion = sql.NullString{String: item.Poll.Question, Valid: true}
			multiSelect = item.Poll.MultiSelect
		}
		var closesAt sql.NullTime
		if item.ClosesAt != nil {
			closesAt = sql.NullTime{Time: item.ClosesAt.UTC(), Valid: true}
		}
		status := item.Status
		if status == "" {
			status = models.StatusDraft
		}

		_, err := tx.db.ExecContext(ctx, `
			INSERT INTO item (id, title, variant, status, poll_question, multi_select, closes_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title,
				variant = excluded.variant,
				poll_question = excluded.poll_question,
				multi_select = excluded.multi_select,
				closes_at = excluded.closes_at
		`, item.ID, item.Title, item.Variant, status, pollQuestion, multiSelect, closesAt, time.Now().UTC())
		if err != nil {
			return classify("upsert item", err)
		}

		if _, err := tx.db.ExecContext(ctx, `DELETE FROM item_option WHERE item_id = $1`, item.ID); err != nil {
			return classify("clear options", err)
		}
		if _, err := tx.db.ExecContext(ctx, `DELETE FROM item_question WHERE item_id = $1`, item.ID); err != nil {
			return classify("clear questions", err)
		}

		if item.Poll != nil {
			for i, o := range item.Poll.Options {
				_, err := tx.db.ExecContext(ctx, `
					INSERT INTO item_option (id, item_id, label, position) VALUES ($1, $2, $3, $4)
				`, o.ID, item.ID, o.Label, i)
				if err != nil {
					return classify("insert option", err)
				}
			}
		}
		for i, q := range item.Questions {
			_, err := tx.db.ExecContext(ctx, `
				INSERT INTO item_question (id, item_id, prompt, kind, min_value, max_value, category, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, q.ID, item.ID, q.Prompt, q.Kind, q.Min, q.Max, q.Category, i)
			if err != nil {
				return classify("insert question", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) SetItemStatus(ctx context.Context, itemID, status string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE item SET status = $1 WHERE id = $2`, status, itemID)
	if err != nil {
		return classify("set item status", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify("set item status", err)
	}
	if n == 0 {
		return fmt.Errorf("set item status: %w", ErrNotFound)
	}
	return nil
}

// Records

func (s *SQLStore) InsertResponse(ctx context.Context, rec models.ResponseRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO response (id, item_id, session_token, payload, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, session_token) DO NOTHING
	`, rec.ID, rec.ItemID, rec.SessionToken, string(payload), rec.SubmittedAt.UTC())
	return insertOutcome("insert response", result, err)
}

func (s *SQLStore) GetResponse(ctx context.Context, itemID, sessionToken string) (models.ResponseRecord, error) {
	rec := models.ResponseRecord{ItemID: itemID, SessionToken: sessionToken}
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, payload, submitted_at FROM response
		WHERE item_id = $1 AND session_token = $2
	`, itemID, sessionToken).Scan(&rec.ID, &payload, &rec.SubmittedAt)
	if err != nil {
		return models.ResponseRecord{}, classify("get response", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return models.ResponseRecord{}, fmt.Errorf("decode payload: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) InsertQuestionResponse(ctx context.Context, rec models.QuestionResponseRecord) error {
	answer, err := json.Marshal(rec.Answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO question_response (id, item_id, question_id, session_token, answer, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id, question_id, session_token) DO NOTHING
	`, rec.ID, rec.ItemID, rec.QuestionID, rec.SessionToken, string(answer), rec.SubmittedAt.UTC())
	return insertOutcome("insert question response", result, err)
}

func (s *SQLStore) ListQuestionResponses(ctx context.Context, itemID, sessionToken string) ([]models.QuestionResponseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, answer, submitted_at FROM question_response
		WHERE item_id = $1 AND session_token = $2
		ORDER BY submitted_at
	`, itemID, sessionToken)
	if err != nil {
		return nil, classify("list question responses", err)
	}
	defer rows.Close()

	var records []models.QuestionResponseRecord
	for rows.Next() {
		rec := models.QuestionResponseRecord{ItemID: itemID, SessionToken: sessionToken}
		var answer string
		if err := rows.Scan(&rec.ID, &rec.QuestionID, &answer, &rec.SubmittedAt); err != nil {
			return nil, classify("scan question response", err)
		}
		if err := json.Unmarshal([]byte(answer), &rec.Answer); err != nil {
			return nil, fmt.Errorf("decode answer for %s: %w", rec.QuestionID, err)
		}
		records = append(records, rec)
	}
	return records, classify("list question responses", rows.Err())
}

// Tallies

func (s *SQLStore) IncrementItemCounter(ctx context.Context, itemID string, counter Counter, delta int64) error {
	if !counter.valid() {
		return fmt.Errorf("unknown counter %q", counter)
	}
	// Column names come from the fixed Counter set above
	query := fmt.Sprintf(`
		INSERT INTO item_tally (item_id, %[1]s) VALUES ($1, $2)
		ON CONFLICT (item_id) DO UPDATE SET %[1]s = item_tally.%[1]s + excluded.%[1]s
	`, counter)
	_, err := s.db.ExecContext(ctx, query, itemID, delta)
	return classify("increment "+string(counter), err)
}

func (s *SQLStore) IncrementOptionVotes(ctx context.Context, itemID, optionID string, delta int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO option_tally (item_id, option_id, vote_count) VALUES ($1, $2, $3)
		ON CONFLICT (item_id, option_id) DO UPDATE SET vote_count = option_tally.vote_count + excluded.vote_count
	`, itemID, optionID, delta)
	return classify("increment option votes", err)
}

func (s *SQLStore) IncrementQuestionAnswers(ctx context.Context, itemID, questionID string, delta int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question_tally (item_id, question_id, answer_count) VALUES ($1, $2, $3)
		ON CONFLICT (item_id, question_id) DO UPDATE SET answer_count = question_tally.answer_count + excluded.answer_count
	`, itemID, questionID, delta)
	return classify("increment question answers", err)
}

// GetTally returns raw counters. Items that were never counted read as zero.
func (s *SQLStore) GetTally(ctx context.Context, itemID string) (models.Tally, error) {
	t := models.Tally{ItemID: itemID}
	err := s.db.QueryRowContext(ctx, `
		SELECT view_count, response_count, like_count FROM item_tally WHERE item_id = $1
	`, itemID).Scan(&t.ViewCount, &t.ResponseCount, &t.LikeCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Tally{}, classify("get tally", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT option_id, vote_count FROM option_tally WHERE item_id = $1
	`, itemID)
	if err != nil {
		return models.Tally{}, classify("get option tally", err)
	}
	for rows.Next() {
		var o models.OptionTally
		if err := rows.Scan(&o.OptionID, &o.Votes); err != nil {
			rows.Close()
			return models.Tally{}, classify("scan option tally", err)
		}
		t.Options = append(t.Options, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.Tally{}, classify("get option tally", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT question_id, answer_count FROM question_tally WHERE item_id = $1
	`, itemID)
	if err != nil {
		return models.Tally{}, classify("get question tally", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q models.QuestionTally
		if err := rows.Scan(&q.QuestionID, &q.Answers); err != nil {
			return models.Tally{}, classify("scan question tally", err)
		}
		t.Questions = append(t.Questions, q)
	}
	return t, classify("get question tally", rows.Err())
}

// Likes

func (s *SQLStore) InsertLike(ctx context.Context, itemID, liker string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO item_like (item_id, liker, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (item_id, liker) DO NOTHING
	`, itemID, liker, time.Now().UTC())
	return insertOutcome("insert like", result, err)
}

func (s *SQLStore) DeleteLike(ctx context.Context, itemID, liker string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM item_like WHERE item_id = $1 AND liker = $2
	`, itemID, liker)
	if err != nil {
		return classify("delete like", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify("delete like", err)
	}
	if n == 0 {
		return fmt.Errorf("delete like: %w", ErrNotFound)
	}
	return nil
}

// insertOutcome turns a conditional insert that touched no rows into ErrAlreadyExists.
func insertOutcome(op string, result sql.Result, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	return nil
}
