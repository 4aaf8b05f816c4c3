// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite DSN or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - SessionSalt: Secret for session token tags (required)
  - RedisURL: Session token storage; process memory when empty
  - SessionTTL: Sliding token lifetime (default: 12h)
  - ItemsFile: YAML item definitions imported at startup
  - SubmitRetries: Retries after transient storage failures (default: 3)
  - RateLimitRPS: Write requests per second per client (default: 5, 0 disables)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	-redis         Redis URL
	-items         Items file
	-env           Dotenv file (default: .env)
	-admin-salt    Admin key salt
	-session-salt  Session token salt

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	REDIS_URL      → -redis
	ITEMS_FILE     → -items
	ADMIN_KEY_SALT → -admin-salt
	SESSION_SALT   → -session-salt

SESSION_TTL, SUBMIT_RETRIES and RATE_LIMIT_RPS are environment only.

CLI flags take precedence over environment variables, and variables already
set in the environment take precedence over the dotenv file. A missing
dotenv file is not an error.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL, ADMIN_KEY_SALT and SESSION_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
  - numeric and duration settings must parse and be non-negative
*/
package cliparse
