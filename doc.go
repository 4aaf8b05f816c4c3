// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Pulse API server.

Pulse collects anonymous responses to polls, surveys, and feedback forms.
Each browsing session gets an opaque token per item, and every write is
keyed on that token so a response is stored and counted at most once, no
matter how often the client retries.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:pulse.db ADMIN_KEY_SALT=... SESSION_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -items items.yaml

A .env file in the working directory is read if present (-env to change).

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite DSN or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - SESSION_SALT (-session-salt): Secret for session token tags

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_URL (-redis): Session token storage (default: process memory)
  - SESSION_TTL: Sliding token lifetime (default: 12h)
  - ITEMS_FILE (-items): YAML item definitions imported at startup
  - SUBMIT_RETRIES: Retries after transient storage failures (default: 3)
  - RATE_LIMIT_RPS: Write requests per second per client (default: 5)
  - OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT: Metric export

# Architecture

  - handlers: HTTP request handlers (items, engagement, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, browsing context, rate limits
  - engine: Validation, at-most-once submits, completion state
  - tally: Server-side counters and percentages
  - session: Per-item session tokens (memory or Redis)
  - store: SQL storage for SQLite and PostgreSQL
  - catalog: YAML item definitions and status transitions
  - db: Connections and embedded migrations
  - telemetry: OpenTelemetry metrics
  - models: Domain, request, and response types
  - auth: Token generation and validation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
