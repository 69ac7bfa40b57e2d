package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		DSN string
	}

	OAuth struct {
		ClientID     string
		ClientSecret string
		IssuerURL    string
		DiscoveryURL string
		RedirectPath string
	}

	Session struct {
		Secret string
	}

	Feed struct {
		FetchTimeout time.Duration
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("UNWIND_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("UNWIND_BASE_URL", "http://localhost:8080")
	cfg.DB.DSN = os.Getenv("UNWIND_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("UNWIND_DB_HOST")
		name := os.Getenv("UNWIND_DB_NAME")
		user := os.Getenv("UNWIND_DB_USER")
		password := os.Getenv("UNWIND_DB_PASSWORD")
		port := getenvDefault("UNWIND_DB_PORT", "5432")
		sslmode := getenvDefault("UNWIND_DB_SSLMODE", "disable")

		var missing []string
		if host == "" {
			missing = append(missing, "UNWIND_DB_HOST")
		}
		if name == "" {
			missing = append(missing, "UNWIND_DB_NAME")
		}
		if user == "" {
			missing = append(missing, "UNWIND_DB_USER")
		}
		if password == "" {
			missing = append(missing, "UNWIND_DB_PASSWORD")
		}

		if len(missing) == 0 {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.OAuth.ClientID = os.Getenv("UNWIND_OAUTH_CLIENT_ID")
	cfg.OAuth.ClientSecret = os.Getenv("UNWIND_OAUTH_CLIENT_SECRET")
	cfg.OAuth.IssuerURL = os.Getenv("UNWIND_OAUTH_ISSUER_URL")
	cfg.OAuth.DiscoveryURL = os.Getenv("UNWIND_OAUTH_DISCOVERY_URL")
	cfg.OAuth.RedirectPath = getenvDefault("UNWIND_OAUTH_REDIRECT_PATH", "/auth/callback")
	cfg.Session.Secret = os.Getenv("UNWIND_SESSION_SECRET")
	cfg.Feed.FetchTimeout = getenvDuration("UNWIND_FEED_FETCH_TIMEOUT", 15*time.Second)
	cfg.PrometheusEnabled = getenvBool("UNWIND_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("UNWIND_TRUSTED_PROXIES")

	if cfg.DB.DSN == "" {
		return nil, errors.New("UNWIND_DB_DSN is required (or set UNWIND_DB_HOST, UNWIND_DB_NAME, UNWIND_DB_USER, and UNWIND_DB_PASSWORD)")
	}
	if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
		return nil, fmt.Errorf("oauth configuration is required: client id and secret")
	}
	if cfg.OAuth.DiscoveryURL == "" && cfg.OAuth.IssuerURL == "" {
		return nil, errors.New("UNWIND_OAUTH_DISCOVERY_URL or UNWIND_OAUTH_ISSUER_URL is required")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("UNWIND_SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("UNWIND_SESSION_SECRET must be at least 32 characters long (got %d)", len(cfg.Session.Secret))
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No UNWIND_TRUSTED_PROXIES configured. Unwind will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
