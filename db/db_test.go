// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDriverName(t *testing.T) {
	tests := []struct {
		dbType  string
		want    string
		wantErr bool
	}{
		{TypeSQLite, "sqlite", false},
		{TypePostgres, "postgres", false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			got, err := DriverName(tt.dbType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DriverName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DriverName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithSQLitePragmas(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"plain", "file:a.db", "file:a.db?" + sqlitePragmas},
		{"with query", "file:a.db?mode=rwc", "file:a.db?mode=rwc&" + sqlitePragmas},
		{"pragmas already set", "file:a.db?_pragma=busy_timeout(1)", "file:a.db?_pragma=busy_timeout(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withSQLitePragmas(tt.dsn); got != tt.want {
				t.Errorf("withSQLitePragmas() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "migrate.db")

	if err := Migrate(ctx, TypeSQLite, dsn); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Second run is a no-op
	if err := Migrate(ctx, TypeSQLite, dsn); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	conn, err := Open(ctx, TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	tables := []string{
		"item", "item_option", "item_question", "response", "question_response",
		"item_like", "item_tally", "option_tally", "question_tally",
	}
	for _, table := range tables {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrate_EnforcesResponseUniqueness(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "unique.db")
	if err := Migrate(ctx, TypeSQLite, dsn); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	conn, err := Open(ctx, TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(`INSERT INTO item (id, title, variant, status) VALUES ('poll-1', 'Lunch', 'poll', 'published')`); err != nil {
		t.Fatalf("insert item: %v", err)
	}
	insert := `INSERT INTO response (id, item_id, session_token, payload, submitted_at) VALUES ($1, 'poll-1', 'tok', '{}', CURRENT_TIMESTAMP)`
	if _, err := conn.Exec(insert, "r1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := conn.Exec(insert, "r2"); err == nil {
		t.Error("expected unique constraint violation for second response")
	}
}

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Error("expected error for unsupported database type")
	}
}
