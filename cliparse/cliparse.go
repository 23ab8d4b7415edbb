package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database types accepted by -t / DATABASE_TYPE
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

const minSecretLen = 16

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	SessionSecret   string
	SessionTTL      time.Duration
	InsecureCookies bool
	PollGracePeriod time.Duration
	AllowedOrigins  []string
	Moderators      []string
	LogLevel        slog.Level
	LogFormat       string
}

// IsModerator reports whether username may review reports
func (c Config) IsModerator(username string) bool {
	for _, m := range c.Moderators {
		if m == username {
			return true
		}
	}
	return false
}

// ParseFlags reads CLI flags, falling back to environment variables and defaults
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var ttl, grace, origins, moderators, level string
	var insecure bool

	fs := flag.NewFlagSet("campusboard", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&origins, "origins", "", "Comma separated allowed origins")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")
	fs.StringVar(&ttl, "session-ttl", "", "Session lifetime, e.g. 168h")
	fs.BoolVar(&insecure, "insecure-cookies", false, "Drop the Secure flag on session cookies")

	fs.StringVar(&grace, "poll-grace", "", "Late vote window after a poll ends")
	fs.StringVar(&moderators, "moderators", "", "Comma separated moderator usernames")
	fs.StringVar(&level, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envOr("DATABASE_TYPE", DatabaseSQLite)
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == DatabasePostgres {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "file:campusboard.db"
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}
	if len(cfg.SessionSecret) < minSecretLen {
		return Config{}, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSecretLen)
	}

	var err error
	if cfg.SessionTTL, err = parseDuration(ttl, "SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PollGracePeriod, err = parseDuration(grace, "POLL_GRACE_PERIOD", 5*time.Minute); err != nil {
		return Config{}, err
	}

	if !insecure {
		if v := os.Getenv("INSECURE_COOKIES"); v != "" {
			insecure, err = strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid INSECURE_COOKIES env variable")
			}
		}
	}
	cfg.InsecureCookies = insecure

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(origins)

	if moderators == "" {
		moderators = os.Getenv("MODERATORS")
	}
	cfg.Moderators = splitList(moderators)

	if level == "" {
		level = envOr("LOG_LEVEL", "info")
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", level)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = envOr("LOG_FORMAT", "text")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(flagVal, envKey string, fallback time.Duration) (time.Duration, error) {
	raw := flagVal
	if raw == "" {
		raw = os.Getenv(envKey)
	}
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", envKey, raw)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
