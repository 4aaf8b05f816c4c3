//go:build integration

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/danielhkuo/pulse/db"
	"github.com/danielhkuo/pulse/models"
)

func startPostgres(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "pulse"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/pulse?sslmode=disable", host, port.Port())

	// The port can accept connections before the server finishes starting
	var migrateErr error
	for attempt := 0; attempt < 10; attempt++ {
		if migrateErr = db.Migrate(ctx, db.TypePostgres, dsn); migrateErr == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, migrateErr)

	conn, err := db.Open(ctx, db.TypePostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn)
}

func TestPostgres_ConcurrentDuplicateResponses(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertItem(ctx, pollItem("poll-1")))

	const attempts = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertResponse(ctx, models.ResponseRecord{
				ID:           uuid.NewString(),
				ItemID:       "poll-1",
				SessionToken: "s1",
				Payload:      models.Payload{Selected: []string{"A"}},
				SubmittedAt:  time.Now(),
			})
			if err == nil {
				mu.Lock()
				inserted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyExists)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
}

func TestPostgres_ConcurrentCounterIncrements(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertItem(ctx, pollItem("poll-1")))

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementOptionVotes(ctx, "poll-1", "A", 1))
		}()
	}
	wg.Wait()

	tally, err := s.GetTally(ctx, "poll-1")
	require.NoError(t, err)
	require.Len(t, tally.Options, 1)
	assert.Equal(t, int64(n), tally.Options[0].Votes)
}
