// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the storage boundary for engagement items, response
records, likes, and tallies.

# Primitives

SQLStore provides the three primitives the submission engine relies on:

  - Conditional inserts (INSERT ... ON CONFLICT DO NOTHING) that report a
    taken key as ErrAlreadyExists instead of a driver error.
  - Atomic counters (counter = counter + delta, computed by the database).
  - Point lookups by the same composite keys.

# Errors

Driver errors from lib/pq and modernc.org/sqlite are classified:

  - unique violations: ErrAlreadyExists
  - connection failures, serialization failures, SQLite busy/locked: ErrUnavailable
  - missing rows: ErrNotFound

The driver error stays in the chain for errors.As.

# Transactions

	err := s.WithTx(ctx, func(tx store.Store) error {
		if err := tx.InsertResponse(ctx, rec); err != nil {
			return err
		}
		return tx.IncrementItemCounter(ctx, rec.ItemID, store.CounterResponses, 1)
	})

SQLite handles have a single connection, so fn must not use the outer Store.
*/
package store
