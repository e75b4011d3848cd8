// Config loader with env defaults for HTTP, DB, Redis, pipeline timeouts,
// rate limiting, and the model/provider credentials.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// PipelineConfig mirrors search.Config but lives here so internal/config
// stays the single place reading the process environment; internal/search
// never calls os.Getenv itself.
type PipelineConfig struct {
	GateTimeout       time.Duration
	FullIntentTimeout time.Duration
	FilterTimeout     time.Duration
	ProviderTimeout   time.Duration
}

type RateLimitConfig struct {
	WindowMS int
	Max      int
}

type CacheConfig struct {
	L2URL        string
	L2TTLSeconds int
}

type SessionConfig struct {
	CookieTTLSeconds int
	CookieDomain     string
}

type Config struct {
	HTTP struct {
		Addr            string
		FrontendOrigins []string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Pipeline PipelineConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Session   SessionConfig
	AI        struct {
		GeminiKey string
		ModelID   string
	}
	Maps struct {
		APIKey string
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
	}
	Log struct {
		Level  string
		Pretty bool
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("PLATEFINDER_HTTP_ADDR", ":8080")
	cfg.HTTP.FrontendOrigins = splitCSV(envOrDefault("FRONTEND_ORIGINS", ""))

	cfg.DB.DSN = envOrDefault("PLATEFINDER_DB_DSN", "")
	cfg.Redis.Addr = envOrDefault("PLATEFINDER_REDIS_ADDR", "localhost:6379")

	cfg.Pipeline.GateTimeout = envOrDefaultMS("GATE_TIMEOUT_MS", 3000)
	cfg.Pipeline.FullIntentTimeout = envOrDefaultMS("FULL_INTENT_TIMEOUT_MS", 6000)
	cfg.Pipeline.FilterTimeout = envOrDefaultMS("FILTER_TIMEOUT_MS", 4000)
	cfg.Pipeline.ProviderTimeout = envOrDefaultMS("PROVIDER_TIMEOUT_MS", 3000)

	cfg.RateLimit.WindowMS = envOrDefaultInt("RATE_LIMIT_WINDOW_MS", 60000)
	cfg.RateLimit.Max = envOrDefaultInt("RATE_LIMIT_MAX", 60)

	cfg.Cache.L2URL = envOrDefault("L2_CACHE_URL", "")
	cfg.Cache.L2TTLSeconds = envOrDefaultInt("L2_CACHE_TTL_SECONDS", 900)

	cfg.Session.CookieTTLSeconds = envOrDefaultInt("SESSION_COOKIE_TTL_SECONDS", 3600)
	cfg.Session.CookieDomain = envOrDefault("COOKIE_DOMAIN", "")

	cfg.AI.GeminiKey = envOrError("MODEL_API_KEY")
	cfg.AI.ModelID = envOrDefault("MODEL_ID", "gemini-2.0-flash")
	cfg.Maps.APIKey = envOrError("PROVIDER_API_KEY")

	cfg.Firebase.ProjectID = envOrDefault("PLATEFINDER_FIREBASE_PROJECT_ID", "")
	cfg.Firebase.CredentialsFile = envOrDefault("PLATEFINDER_FIREBASE_CREDENTIALS_FILE", "")

	cfg.Log.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.Log.Pretty = envOrDefaultBool("LOG_PRETTY", false)

	return cfg, nil
}

// ToSearchConfigFields returns the loaded pipeline timeouts in search.Config's
// field order; kept as plain values (no import of internal/search here) so
// config stays a leaf package.
func (c PipelineConfig) ToSearchConfigFields() (gate, fullIntent, filter, provider time.Duration) {
	return c.GateTimeout, c.FullIntentTimeout, c.FilterTimeout, c.ProviderTimeout
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrError(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	panic("environment variable " + key + " is required")
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultMS(key string, defMS int) time.Duration {
	return time.Duration(envOrDefaultInt(key, defMS)) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
