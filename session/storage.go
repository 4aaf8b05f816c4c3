// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session token not found")

// Storage keeps one token per (browsing context, item).
type Storage interface {
	// Get returns the stored token or ErrNotFound.
	Get(ctx context.Context, contextID, itemID string) (string, error)
	// SetIfAbsent stores token unless one is already present and returns
	// whichever token is stored afterwards.
	SetIfAbsent(ctx context.Context, contextID, itemID, token string) (string, error)
}

// memorySweepMin is the map size at which inserts start dropping idle
// entries that were never looked up again.
const memorySweepMin = 1024

type memoryEntry struct {
	token    string
	lastSeen time.Time
}

// MemoryStorage keeps tokens in process memory. Entries idle for longer
// than the TTL are dropped; a zero TTL keeps them forever.
type MemoryStorage struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time

	// nextSweep bounds full scans to one per TTL.
	nextSweep time.Time
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStorage) Get(_ context.Context, contextID, itemID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := storageKey(contextID, itemID)
	entry, ok := m.lookup(key)
	if !ok {
		return "", ErrNotFound
	}
	entry.lastSeen = m.now()
	m.entries[key] = entry
	return entry.token, nil
}

func (m *MemoryStorage) SetIfAbsent(_ context.Context, contextID, itemID, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := storageKey(contextID, itemID)
	if entry, ok := m.lookup(key); ok {
		return entry.token, nil
	}
	now := m.now()
	if m.ttl > 0 && len(m.entries) >= memorySweepMin && !now.Before(m.nextSweep) {
		m.sweep(now)
	}
	m.entries[key] = memoryEntry{token: token, lastSeen: now}
	return token, nil
}

// sweep drops entries idle past the TTL; mu must be held.
func (m *MemoryStorage) sweep(now time.Time) {
	for key, entry := range m.entries {
		if now.Sub(entry.lastSeen) > m.ttl {
			delete(m.entries, key)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}

// lookup must be called with mu held.
func (m *MemoryStorage) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if m.ttl > 0 && m.now().Sub(entry.lastSeen) > m.ttl {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

// Len reports how many entries are held. Expired entries count until a
// lookup or an insert sweep drops them.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisStorage keeps tokens in Redis with a sliding TTL.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage connects using a redis:// URL.
func NewRedisStorage(url string, ttl time.Duration) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStorage{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) Get(ctx context.Context, contextID, itemID string) (string, error) {
	// GETEX refreshes the TTL on every read
	token, err := r.client.GetEx(ctx, redisKey(contextID, itemID), r.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return token, nil
}

func (r *RedisStorage) SetIfAbsent(ctx context.Context, contextID, itemID, token string) (string, error) {
	key := redisKey(contextID, itemID)
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return token, nil
	}
	existing, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return existing, nil
}

func storageKey(contextID, itemID string) string {
	return contextID + "|" + itemID
}

func redisKey(contextID, itemID string) string {
	return "pulse:session:" + contextID + ":" + itemID
}
