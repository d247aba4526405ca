// Package config loads the server configuration: defaults, then an
// optional YAML file, then BOOKMARKS_* environment variables, then flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "BOOKMARKS_"

// ErrMissingJWTSecret is returned when no signing secret was configured.
var ErrMissingJWTSecret = errors.New("jwt secret is required (BOOKMARKS_JWT_SECRET or --jwt-secret)")

// Config is the full server configuration.
type Config struct {
	Redis RedisConfig `yaml:"redis"`
	Log   LogConfig   `yaml:"log"`

	Addr      string `yaml:"addr"`       // адрес HTTP сервера, например ":8080"
	DBPath    string `yaml:"db"`         // путь к файлу SQLite
	JWTSecret string `yaml:"jwt_secret"` // секрет подписи access token

	AccessTokenTTL       time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL      time.Duration `yaml:"refresh_token_ttl"`
	ShutdownTimeout      time.Duration `yaml:"shutdown_timeout"`
	TokenCleanupInterval time.Duration `yaml:"token_cleanup_interval"`

	// AuthRateLimit is the number of auth requests per minute per client IP.
	AuthRateLimit int `yaml:"auth_rate_limit"`
}

// RedisConfig enables the Redis change broker when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Addr:                 ":8080",
		DBPath:               "bookmarks.db",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      30 * 24 * time.Hour,
		ShutdownTimeout:      10 * time.Second,
		TokenCleanupInterval: time.Hour,
		AuthRateLimit:        20,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from args (without the program name)
// and the environment lookup function.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("bookmarks-server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	addr := fs.String("addr", "", "HTTP listen address")
	dbPath := fs.String("db", "", "path to SQLite database")
	jwtSecret := fs.String("jwt-secret", "", "JWT signing secret")
	redisAddr := fs.String("redis-addr", "", "Redis address for the change broker (empty = in-process)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if path := firstNonEmpty(*configPath, getenv(envPrefix+"CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	// флаги имеют наивысший приоритет, но только если заданы явно
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "db":
			cfg.DBPath = *dbPath
		case "jwt-secret":
			cfg.JWTSecret = *jwtSecret
		case "redis-addr":
			cfg.Redis.Addr = *redisAddr
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"ADDR":           &c.Addr,
		"DB":             &c.DBPath,
		"JWT_SECRET":     &c.JWTSecret,
		"REDIS_ADDR":     &c.Redis.Addr,
		"REDIS_PASSWORD": &c.Redis.Password,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
	}
	for key, dst := range strs {
		if v := getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":       &c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL":      &c.RefreshTokenTTL,
		"SHUTDOWN_TIMEOUT":       &c.ShutdownTimeout,
		"TOKEN_CLEANUP_INTERVAL": &c.TokenCleanupInterval,
	}
	for key, dst := range durations {
		v := getenv(envPrefix + key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"REDIS_DB":        &c.Redis.DB,
		"AUTH_RATE_LIMIT": &c.AuthRateLimit,
	}
	for key, dst := range ints {
		v := getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	return nil
}

// Validate checks required values and ranges
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("auth rate limit must be positive, got %d", c.AuthRateLimit)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	return nil
}

// SlogLevel parses Level into a slog.Level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
	return level, nil
}

// NewLogger creates the process logger described by the config
func (l LogConfig) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
