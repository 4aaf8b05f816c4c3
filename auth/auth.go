// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

const (
	// 16 bytes = 128 bits of entropy per session token
	sessionTokenBytes = 16
	// Truncated HMAC tag appended to session tokens
	sessionTagBytes = 12
)

// GenerateAdminKey creates an HMAC-based admin key for an item
// This is deterministic and verifiable
func GenerateAdminKey(itemID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(itemID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the item
func ValidateAdminKey(itemID, adminKey, salt string) error {
	expected := GenerateAdminKey(itemID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateSessionToken mints an anonymous token scoped to one item.
// Format: <random>.<tag>, where tag = HMAC(salt, itemID|random).
func GenerateSessionToken(itemID, salt string) (string, error) {
	b := make([]byte, sessionTokenBytes)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	random := base64.RawURLEncoding.EncodeToString(b)
	return random + "." + sessionTag(itemID, random, salt), nil
}

// ValidateSessionToken checks that token was minted for itemID under salt.
func ValidateSessionToken(itemID, token, salt string) error {
	random, tag, ok := strings.Cut(token, ".")
	if !ok || random == "" || tag == "" {
		return ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(random)
	if err != nil || len(raw) != sessionTokenBytes {
		return ErrInvalidToken
	}
	if !hmac.Equal([]byte(tag), []byte(sessionTag(itemID, random, salt))) {
		return ErrInvalidToken
	}
	return nil
}

func sessionTag(itemID, random, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(itemID))
	h.Write([]byte{'|'})
	h.Write([]byte(random))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:sessionTagBytes])
}

// TokenFingerprint returns a short, non-reversible form of a token for logs.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for rate limiting keys
	return hex.EncodeToString(sum[:8])
}
