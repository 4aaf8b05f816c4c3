// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// SQLite connections get these unless the DSN already sets pragmas.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

var (
	migrationsCounter   metric.Int64Counter
	migrationsCounterMu sync.Once
)

// DriverName maps a configured database type to its database/sql driver.
func DriverName(dbType string) (string, error) {
	switch dbType {
	case TypeSQLite:
		return "sqlite", nil
	case TypePostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// Open connects to the database and verifies the connection.
// SQLite handles are limited to one connection: SQLite has a single writer,
// and serializing in the pool avoids SQLITE_BUSY under concurrent requests.
func Open(ctx context.Context, dbType, dsn string) (*sql.DB, error) {
	driver, err := DriverName(dbType)
	if err != nil {
		return nil, err
	}
	if dbType == TypeSQLite {
		dsn = withSQLitePragmas(dsn)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Migrate applies the embedded migrations on a dedicated connection.
// Safe to call multiple times - already applied migrations are skipped.
func Migrate(ctx context.Context, dbType, dsn string) error {
	conn, err := Open(ctx, dbType, dsn)
	if err != nil {
		return err
	}
	// m.Close also closes conn for the sqlite driver; closing twice is harmless
	defer conn.Close()

	var driver database.Driver
	switch dbType {
	case TypeSQLite:
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	case TypePostgres:
		driver, err = postgres.WithInstance(conn, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("initialise %s migrate driver: %w", dbType, err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbType, driver)
	if err != nil {
		return fmt.Errorf("initialise migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			slog.Warn("migrations source close", "error", sourceErr)
		}
		if dbErr != nil {
			slog.Warn("migrations db close", "error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			recordMigrationMetric(ctx, dbType, "noop")
			return nil
		}
		recordMigrationMetric(ctx, dbType, "failed")
		return fmt.Errorf("apply migrations: %w", err)
	}

	recordMigrationMetric(ctx, dbType, "applied")
	slog.Info("database migrations applied", "type", dbType)
	return nil
}

func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

func recordMigrationMetric(ctx context.Context, dbType, result string) {
	migrationsCounterMu.Do(func() {
		meter := otel.Meter("pulse/db")
		counter, err := meter.Int64Counter("pulse_db_migrations_total",
			metric.WithDescription("Migration runs by outcome"),
			metric.WithUnit("{run}"))
		if err == nil {
			migrationsCounter = counter
		}
	})
	if migrationsCounter == nil {
		return
	}
	migrationsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("db_type", dbType),
		attribute.String("result", result),
	))
}
