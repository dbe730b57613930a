package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the OR admin service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	SessionTimeout   time.Duration
	WarningThreshold time.Duration
	ExpiryInterval   time.Duration
	WarningInterval  time.Duration
	Heartbeat        bool
	IDScheme         string
	RateLimitRPS     float64
	RateLimitBurst   int
	TrustedProxies   []netip.Prefix
	LogLevel         string
	LogFormat        string
}

// Load parses configuration values from the current process environment.
//
// Every variable is optional. Unparseable or out of range values are
// collected and reported together in a localized error message.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:oradmin.db",
		SessionTimeout:   30 * time.Minute,
		WarningThreshold: 2 * time.Minute,
		ExpiryInterval:   time.Minute,
		WarningInterval:  time.Second,
		IDScheme:         "uuid",
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		LogLevel:         "info",
		LogFormat:        "json",
	}

	invalid := make([]string, 0, 2)

	if portValue := lookup("ORADMIN_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ORADMIN_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := lookup("ORADMIN_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ORADMIN_SESSION_TIMEOUT", &cfg.SessionTimeout},
		{"ORADMIN_WARNING_THRESHOLD", &cfg.WarningThreshold},
		{"ORADMIN_EXPIRY_INTERVAL", &cfg.ExpiryInterval},
		{"ORADMIN_WARNING_INTERVAL", &cfg.WarningInterval},
	}
	for _, d := range durations {
		value := lookup(d.key)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, d.key)
			continue
		}
		*d.dst = parsed
	}

	if heartbeatValue := lookup("ORADMIN_HEARTBEAT"); heartbeatValue != "" {
		heartbeat, err := strconv.ParseBool(heartbeatValue)
		if err != nil {
			invalid = append(invalid, "ORADMIN_HEARTBEAT")
		} else {
			cfg.Heartbeat = heartbeat
		}
	}

	if scheme := strings.ToLower(lookup("ORADMIN_ID_SCHEME")); scheme != "" {
		if scheme != "uuid" && scheme != "ulid" {
			invalid = append(invalid, "ORADMIN_ID_SCHEME")
		} else {
			cfg.IDScheme = scheme
		}
	}

	if rpsValue := lookup("ORADMIN_RATE_LIMIT_RPS"); rpsValue != "" {
		rps, err := strconv.ParseFloat(rpsValue, 64)
		if err != nil || rps < 0 {
			invalid = append(invalid, "ORADMIN_RATE_LIMIT_RPS")
		} else {
			cfg.RateLimitRPS = rps
		}
	}

	if burstValue := lookup("ORADMIN_RATE_LIMIT_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst < 0 {
			invalid = append(invalid, "ORADMIN_RATE_LIMIT_BURST")
		} else {
			cfg.RateLimitBurst = burst
		}
	}

	if proxiesValue := lookup("ORADMIN_TRUSTED_PROXIES"); proxiesValue != "" {
		proxies, err := ParseTrustedProxies(proxiesValue)
		if err != nil {
			invalid = append(invalid, "ORADMIN_TRUSTED_PROXIES")
		} else {
			cfg.TrustedProxies = proxies
		}
	}

	if level := strings.ToLower(lookup("ORADMIN_LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "ORADMIN_LOG_LEVEL")
		}
	}

	if format := strings.ToLower(lookup("ORADMIN_LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "ORADMIN_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}
	if cfg.WarningThreshold >= cfg.SessionTimeout {
		return Config{}, fmt.Errorf("警告しきい値はセッションタイムアウトより短くしてください: ORADMIN_WARNING_THRESHOLD=%s, ORADMIN_SESSION_TIMEOUT=%s", cfg.WarningThreshold, cfg.SessionTimeout)
	}

	return cfg, nil
}

// ParseTrustedProxies reads a comma separated list of IP addresses or CIDR
// prefixes. Bare addresses become single-host prefixes.
func ParseTrustedProxies(value string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			prefix, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
