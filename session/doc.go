// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session issues anonymous, per-item session tokens.

A browsing context (identified by the pulse_ctx cookie) gets one token per
item, reused for every later call with the same item. Tokens are minted by
auth.GenerateSessionToken and carry an HMAC tag binding them to the item.

Storage is either MemoryStorage (process-local) or RedisStorage (shared,
sliding TTL). When storage fails, Provider falls back to a process-local
token and reports Resumable: false.
*/
package session
