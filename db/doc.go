// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens database connections and applies schema migrations.

# Connections

Open connects and pings, for either SQLite (modernc.org/sqlite) or
PostgreSQL (lib/pq):

	conn, err := db.Open(ctx, db.TypeSQLite, "file:pulse.db")

SQLite handles get foreign keys, a busy timeout, WAL mode, and a single
pooled connection.

# Migrations

Migrate applies the embedded migrations/*.sql files with golang-migrate:

	if err := db.Migrate(ctx, db.TypePostgres, dsn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times. Migrations run on their own connection.

# Tables

  - item, item_option, item_question: engagement item definitions
  - response: one row per (item_id, session_token), UNIQUE
  - question_response: one row per (item_id, question_id, session_token), UNIQUE
  - item_like: one row per (item_id, liker)
  - item_tally, option_tally, question_tally: counters

# Portability

The same SQL runs on both engines: TEXT/BIGINT/TIMESTAMP columns,
INSERT ... ON CONFLICT, and $n placeholders numbered in order of
appearance (SQLite binds $n by position of first use).
*/
package db
