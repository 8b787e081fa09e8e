package server

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/hardstucks/podium/pkg/errors"
)

// =============================================================================
// Defaults - Single Source of Truth
// =============================================================================

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8080"

	// DefaultSolveTimeout bounds one assignment computation. Requests whose
	// solve exceeds it receive 504 Gateway Timeout.
	DefaultSolveTimeout = 60 * time.Second

	// DefaultMaxParticipants caps request size before any work happens.
	DefaultMaxParticipants = 512
)

// Config holds the server configuration, loaded from an optional TOML file
// with environment variable overrides on top.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// AllowedOrigins lists origins permitted by CORS. "*" allows any.
	AllowedOrigins []string `toml:"allowed_origins"`

	// SolveTimeout bounds one assignment computation.
	SolveTimeout duration `toml:"solve_timeout"`

	// MaxParticipants rejects oversized requests up front.
	MaxParticipants int `toml:"max_participants"`

	// Workers bounds the number of concurrently running solves.
	Workers int `toml:"workers"`

	// Redis configures the shared result cache. Empty Addr selects the
	// in-process cache instead.
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds the Redis cache connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// duration wraps time.Duration so TOML files can say "30s".
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// LoadConfig assembles the configuration in three layers: defaults, then the
// TOML file at path (skipped when path is empty), then environment variables.
// A .env file in the working directory is loaded first so container and local
// runs configure identically.
func LoadConfig(path string) (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            DefaultAddr,
		AllowedOrigins:  []string{"*"},
		SolveTimeout:    duration(DefaultSolveTimeout),
		MaxParticipants: DefaultMaxParticipants,
		Workers:         runtime.NumCPU(),
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing config file %s", path)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from PODIUM_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PODIUM_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PODIUM_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("PODIUM_SOLVE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.SolveTimeout = duration(parsed)
		}
	}
	if v := os.Getenv("PODIUM_MAX_PARTICIPANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxParticipants = n
		}
	}
	if v := os.Getenv("PODIUM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("PODIUM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PODIUM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PODIUM_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "listen address must not be empty")
	}
	if time.Duration(c.SolveTimeout) <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "solve timeout must be positive")
	}
	if c.MaxParticipants <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max participants must be positive")
	}
	if c.Workers <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "worker count must be positive")
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
