// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and verification utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(itemID, salt)
	err := auth.ValidateAdminKey(itemID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Validation needs no
database lookup.

# Session Tokens

Session tokens are anonymous, per-item identifiers:

	token, err := auth.GenerateSessionToken(itemID, salt)
	err = auth.ValidateSessionToken(itemID, token, salt)

A token is 128 random bits followed by a truncated HMAC tag over the item ID,
so a token minted for one item is rejected for every other item. Tokens are
never tied to a user account.

Use TokenFingerprint when a token must appear in logs.

# IP Hashing

For privacy-preserving rate limiting:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
