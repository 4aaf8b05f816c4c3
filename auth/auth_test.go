// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name   string
		itemID string
		salt   string
	}{
		{"standard", "item123", "secret-salt"},
		{"empty item id", "", "salt"},
		{"empty salt", "item456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.itemID, tt.salt)

			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			key2 := GenerateAdminKey(tt.itemID, tt.salt)
			if key != key2 {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			if tt.itemID != "" && tt.salt != "" {
				differentKey := GenerateAdminKey(tt.itemID+"x", tt.salt)
				if key == differentKey {
					t.Error("GenerateAdminKey() produced same key for different item IDs")
				}
			}

			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	itemID := "test-item-123"
	salt := "test-salt"
	validKey := GenerateAdminKey(itemID, salt)

	tests := []struct {
		name     string
		itemID   string
		adminKey string
		salt     string
		wantErr  bool
	}{
		{"valid key", itemID, validKey, salt, false},
		{"wrong key", itemID, "wrong-key", salt, true},
		{"wrong item id", "different-item", validKey, salt, true},
		{"wrong salt", itemID, validKey, "different-salt", true},
		{"empty key", itemID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.itemID, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken("poll-1", "session-salt")
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	if strings.Contains(token, "=") {
		t.Error("GenerateSessionToken() contains padding characters")
	}
	if strings.Count(token, ".") != 1 {
		t.Errorf("GenerateSessionToken() = %q, want exactly one separator", token)
	}

	// 128-bit random part encodes to 22 chars
	random, _, _ := strings.Cut(token, ".")
	if len(random) != 22 {
		t.Errorf("random part length = %d, want 22", len(random))
	}

	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken("poll-1", "session-salt")
		if err != nil {
			t.Fatalf("GenerateSessionToken() error on iteration %d: %v", i, err)
		}
		if tokens[token] {
			t.Errorf("GenerateSessionToken() produced duplicate token: %s", token)
		}
		tokens[token] = true
	}
}

func TestValidateSessionToken(t *testing.T) {
	salt := "session-salt"
	token, err := GenerateSessionToken("poll-1", salt)
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}
	random, tag, _ := strings.Cut(token, ".")
	flipped := "A"
	if random[0] == 'A' {
		flipped = "B"
	}

	tests := []struct {
		name    string
		itemID  string
		token   string
		salt    string
		wantErr bool
	}{
		{"valid", "poll-1", token, salt, false},
		{"other item", "poll-2", token, salt, true},
		{"other salt", "poll-1", token, "other-salt", true},
		{"missing tag", "poll-1", random, salt, true},
		{"empty", "poll-1", "", salt, true},
		{"tampered random", "poll-1", flipped + random[1:] + "." + tag, salt, true},
		{"short random", "poll-1", "abc." + tag, salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionToken(tt.itemID, tt.token, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidToken {
				t.Errorf("ValidateSessionToken() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestTokenFingerprint(t *testing.T) {
	fp := TokenFingerprint("some-token")
	if len(fp) != 8 {
		t.Errorf("TokenFingerprint() length = %d, want 8", len(fp))
	}
	if fp != TokenFingerprint("some-token") {
		t.Error("TokenFingerprint() is not deterministic")
	}
	if strings.Contains(fp, "some") {
		t.Error("TokenFingerprint() leaks token text")
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			if hash != HashIP(tt.ip, tt.salt) {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	if HashIP("192.168.1.1", "salt") == HashIP("192.168.1.2", "salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if HashIP("192.168.1.1", "salt1") == HashIP("192.168.1.1", "salt2") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

func BenchmarkGenerateSessionToken(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateSessionToken("poll-1", "session-salt")
	}
}

func BenchmarkValidateSessionToken(b *testing.B) {
	token, _ := GenerateSessionToken("poll-1", "session-salt")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateSessionToken("poll-1", token, "session-salt")
	}
}
