package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"ORADMIN_HTTP_PORT",
	"ORADMIN_SQLITE_DSN",
	"ORADMIN_SESSION_TIMEOUT",
	"ORADMIN_WARNING_THRESHOLD",
	"ORADMIN_EXPIRY_INTERVAL",
	"ORADMIN_WARNING_INTERVAL",
	"ORADMIN_HEARTBEAT",
	"ORADMIN_ID_SCHEME",
	"ORADMIN_RATE_LIMIT_RPS",
	"ORADMIN_RATE_LIMIT_BURST",
	"ORADMIN_TRUSTED_PROXIES",
	"ORADMIN_LOG_LEVEL",
	"ORADMIN_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		// t.Setenv restores the previous value once the test ends.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:oradmin.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTimeout != 30*time.Minute || cfg.WarningThreshold != 2*time.Minute {
			t.Fatalf("unexpected session defaults: %s / %s", cfg.SessionTimeout, cfg.WarningThreshold)
		}
		if cfg.ExpiryInterval != time.Minute || cfg.WarningInterval != time.Second {
			t.Fatalf("unexpected interval defaults: %s / %s", cfg.ExpiryInterval, cfg.WarningInterval)
		}
		if cfg.Heartbeat {
			t.Fatal("heartbeat must be off by default")
		}
		if len(cfg.TrustedProxies) != 0 {
			t.Fatalf("no proxy is trusted by default, got %v", cfg.TrustedProxies)
		}
		if cfg.IDScheme != "uuid" || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORADMIN_HTTP_PORT", "9090")
		t.Setenv("ORADMIN_SQLITE_DSN", "file:/tmp/oradmin.db")
		t.Setenv("ORADMIN_SESSION_TIMEOUT", "15m")
		t.Setenv("ORADMIN_WARNING_THRESHOLD", "1m")
		t.Setenv("ORADMIN_HEARTBEAT", "true")
		t.Setenv("ORADMIN_ID_SCHEME", "ULID")
		t.Setenv("ORADMIN_RATE_LIMIT_RPS", "2.5")
		t.Setenv("ORADMIN_RATE_LIMIT_BURST", "5")
		t.Setenv("ORADMIN_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.SQLiteDSN != "file:/tmp/oradmin.db" {
			t.Fatalf("unexpected port/dsn: %d %q", cfg.HTTPPort, cfg.SQLiteDSN)
		}
		if cfg.SessionTimeout != 15*time.Minute || cfg.WarningThreshold != time.Minute {
			t.Fatalf("unexpected durations: %s / %s", cfg.SessionTimeout, cfg.WarningThreshold)
		}
		if !cfg.Heartbeat || cfg.IDScheme != "ulid" {
			t.Fatalf("unexpected heartbeat/scheme: %+v", cfg)
		}
		if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 || cfg.LogLevel != "debug" {
			t.Fatalf("unexpected rate limit/log level: %+v", cfg)
		}
	})

	t.Run("parses trusted proxies", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORADMIN_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if len(cfg.TrustedProxies) != 2 {
			t.Fatalf("expected 2 prefixes, got %v", cfg.TrustedProxies)
		}
		if got := cfg.TrustedProxies[1].String(); got != "192.168.1.10/32" {
			t.Fatalf("expected single host prefix, got %s", got)
		}

		t.Setenv("ORADMIN_TRUSTED_PROXIES", "10.0.0.0/8,proxy.local")
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ORADMIN_TRUSTED_PROXIES") {
			t.Fatalf("expected invalid proxy error, got %v", err)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORADMIN_HTTP_PORT", "not-a-port")
		t.Setenv("ORADMIN_SESSION_TIMEOUT", "-5m")
		t.Setenv("ORADMIN_ID_SCHEME", "snowflake")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: ORADMIN_HTTP_PORT, ORADMIN_SESSION_TIMEOUT, ORADMIN_ID_SCHEME"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects a warning threshold that is not shorter than the timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORADMIN_SESSION_TIMEOUT", "2m")
		t.Setenv("ORADMIN_WARNING_THRESHOLD", "2m")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "ORADMIN_WARNING_THRESHOLD") {
			t.Fatalf("expected threshold error, got %v", err)
		}
	})
}
