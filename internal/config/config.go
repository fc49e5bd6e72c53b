package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	BackendURL string

	// Session cookie issued to the browser
	SessionSecret     string
	SessionCookieName string
	SessionIdleTTL    time.Duration
	SessionMaxAge     time.Duration
	CookieSecure      bool

	BackendReadTimeout  time.Duration
	BackendWriteTimeout time.Duration

	// Optional: empty REDIS_ADDR falls back to in-process rate limiting
	RedisAddr string
	RLLimit   int
	RLWindow  time.Duration
	// Per-session attempts at checking a verification code within RLWindow
	RLCodeAttempts int

	CORSOrigins []string
	StaticDir   string

	OTLPEndpoint string
}

// Load reads the process environment. A .env file in the working directory is
// honored when present; real environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("HTTP_PORT", "8080"),
		BackendURL:        getEnv("BACKEND_URL", "http://localhost:5000/api/v1"),
		SessionSecret:     getEnv("SESSION_SECRET", "change-me-secret"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "tutorhub_sid"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		StaticDir:         os.Getenv("STATIC_DIR"),
		OTLPEndpoint:      os.Getenv("OTEL_ENDPOINT"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	if !strings.HasPrefix(cfg.BackendURL, "http://") && !strings.HasPrefix(cfg.BackendURL, "https://") {
		return nil, fmt.Errorf("BACKEND_URL must be an absolute http(s) URL: %q", cfg.BackendURL)
	}

	var err error
	if cfg.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getDuration("SESSION_MAX_AGE", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackendReadTimeout, err = getDuration("BACKEND_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BackendWriteTimeout, err = getDuration("BACKEND_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RLWindow, err = getDuration("RL_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RLLimit, err = getInt("RL_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.RLCodeAttempts, err = getInt("RL_CODE_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.RLLimit < 1 || cfg.RLCodeAttempts < 1 {
		return nil, fmt.Errorf("RL_LIMIT and RL_CODE_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
