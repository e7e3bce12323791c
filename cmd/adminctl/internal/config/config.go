package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/client"
)

type contextKey string

const configKey contextKey = "adminctl-config"

// Environment variables read by Load. Flags given on the command line win.
const (
	EnvServerURL      = "ADMINCTL_SERVER"
	EnvToken          = "ADMINCTL_TOKEN"
	EnvStore          = "ADMINCTL_STORE"
	EnvRedisAddr      = "ADMINCTL_REDIS_ADDR"
	EnvRedisPassword  = "ADMINCTL_REDIS_PASSWORD"
	EnvRedisDB        = "ADMINCTL_REDIS_DB"
	EnvStateDir       = "ADMINCTL_STATE_DIR"
	EnvLogLevel       = "ADMINCTL_LOG_LEVEL"
	EnvNonInteractive = "ADMINCTL_NON_INTERACTIVE"
	EnvProduction     = "ADMINCTL_PRODUCTION"
	EnvTimeout        = "ADMINCTL_TIMEOUT"
)

// Storage backends for the credential tiers.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Defaults applied when neither a flag nor the environment sets a value.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultRedisAddr = "localhost:6379"
	DefaultLogLevel  = "warn"
	DefaultTimeout   = 30 * time.Second
)

// GlobalConfig holds shared configuration for all adminctl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	ServerURL      string
	Token          string
	Store          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	StateDir       string
	LogLevel       string
	NonInteractive bool
	Production     bool
	Timeout        time.Duration

	Logger         *slog.Logger
	ClientProvider *client.Provider
}

// Load reads envFile into the process environment, without overriding
// variables that are already set, and builds the configuration from it.
// A missing envFile is not an error.
func Load(envFile string) (*GlobalConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup.
func FromEnv(lookup func(string) (string, bool)) (*GlobalConfig, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &GlobalConfig{
		ServerURL:     get(EnvServerURL, DefaultServerURL),
		Token:         get(EnvToken, ""),
		Store:         strings.ToLower(get(EnvStore, StoreFile)),
		RedisAddr:     get(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: get(EnvRedisPassword, ""),
		StateDir:      get(EnvStateDir, ""),
		LogLevel:      get(EnvLogLevel, DefaultLogLevel),
		Timeout:       DefaultTimeout,
	}

	var err error
	if v := get(EnvRedisDB, ""); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
	}
	if cfg.NonInteractive, err = parseBool(get(EnvNonInteractive, "")); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvNonInteractive, err)
	}
	if cfg.Production, err = parseBool(get(EnvProduction, "")); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvProduction, err)
	}
	if v := get(EnvTimeout, ""); v != "" {
		if cfg.Timeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
	}
	return cfg, nil
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// Validate checks the settings that cannot be fixed up later.
func (c *GlobalConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.ServerURL, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid server URL %q: expected http(s)://host", c.ServerURL)
	}
	if c.Production && u.Scheme != "https" {
		return fmt.Errorf("server URL %q must use https in production", c.ServerURL)
	}

	switch c.Store {
	case StoreFile:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis store requires a redis address")
		}
	default:
		return fmt.Errorf("unsupported store %q (expected %s or %s)", c.Store, StoreFile, StoreRedis)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// InjectConfig adds config to the cobra command context.
// This should be called in the root command's PersistentPreRunE.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// This should only be used in command RunE functions where we know
// the config has been injected by the root command.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("adminctl: config not found in context - this is a bug in adminctl")
	}
	return cfg
}
