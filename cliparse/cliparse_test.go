// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("SESSION_SALT", "test-session")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SUBMIT_RETRIES", "5")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabasePostgres {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.SubmitRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.SubmitRetries)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected 2.5 rps, got %f", cfg.RateLimitRPS)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis URL %q", cfg.RedisURL)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("SUBMIT_RETRIES", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseSQLite {
		t.Errorf("expected sqlite default, got %s", cfg.DatabaseType)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected 12h default TTL, got %s", cfg.SessionTTL)
	}
	if cfg.SubmitRetries != 3 {
		t.Errorf("expected 3 default retries, got %d", cfg.SubmitRetries)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{
		"-p", "8080", "-d", "file:other.db", "-admin-salt", "s1", "-session-salt", "s2",
		"-env", filepath.Join(t.TempDir(), "missing.env"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:other.db" {
		t.Errorf("CLI should override env: got %s", cfg.DatabaseURL)
	}
	if cfg.SessionSalt != "s2" {
		t.Errorf("CLI should override env: got %s", cfg.SessionSalt)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"no database url", "DATABASE_URL"},
		{"no admin salt", "ADMIN_KEY_SALT"},
		{"no session salt", "SESSION_SALT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "missing.env")})
			if err == nil {
				t.Errorf("expected error when %s is missing", tt.unset)
			}
		})
	}
}

func TestParseFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "PORT", "abc"},
		{"bad ttl", "SESSION_TTL", "soon"},
		{"negative retries", "SUBMIT_RETRIES", "-1"},
		{"bad database type", "DATABASE_TYPE", "mysql"},
		{"bad rate", "RATE_LIMIT_RPS", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "missing.env")})
			if err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestParseFlags_DotenvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("ADMIN_KEY_SALT", "from-env")
	// Keys only the dotenv file provides; godotenv sets them process-wide
	for _, key := range []string{"SESSION_SALT", "ITEMS_FILE"} {
		prev, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "SESSION_SALT=from-file\nITEMS_FILE=items.yaml\nADMIN_KEY_SALT=ignored\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-env", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SessionSalt != "from-file" {
		t.Errorf("expected session salt from dotenv file, got %q", cfg.SessionSalt)
	}
	if cfg.ItemsFile != "items.yaml" {
		t.Errorf("expected items file from dotenv file, got %q", cfg.ItemsFile)
	}
	// Existing environment wins over the file
	if cfg.AdminKeySalt != "from-env" {
		t.Errorf("expected environment to win, got %q", cfg.AdminKeySalt)
	}
}
