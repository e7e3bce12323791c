package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, DefaultRedisAddr, cfg.RedisAddr)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.False(t, cfg.NonInteractive)
	assert.False(t, cfg.Production)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		EnvServerURL:      "https://api.example.com",
		EnvToken:          "tok",
		EnvStore:          "Redis",
		EnvRedisAddr:      "cache:6380",
		EnvRedisDB:        "2",
		EnvNonInteractive: "1",
		EnvProduction:     "true",
		EnvTimeout:        "5s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.ServerURL)
	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.NonInteractive)
	assert.True(t, cfg.Production)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	for key, value := range map[string]string{
		EnvRedisDB:        "two",
		EnvNonInteractive: "maybe",
		EnvProduction:     "yes please",
		EnvTimeout:        "soon",
	} {
		_, err := FromEnv(lookupFrom(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GlobalConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*GlobalConfig) {}},
		{name: "production requires https", mutate: func(c *GlobalConfig) { c.Production = true }, wantErr: true},
		{name: "production https", mutate: func(c *GlobalConfig) {
			c.Production = true
			c.ServerURL = "https://api.example.com"
		}},
		{name: "missing scheme", mutate: func(c *GlobalConfig) { c.ServerURL = "api.example.com" }, wantErr: true},
		{name: "ftp scheme", mutate: func(c *GlobalConfig) { c.ServerURL = "ftp://api.example.com" }, wantErr: true},
		{name: "unknown store", mutate: func(c *GlobalConfig) { c.Store = "sqlite" }, wantErr: true},
		{name: "redis without address", mutate: func(c *GlobalConfig) {
			c.Store = StoreRedis
			c.RedisAddr = ""
		}, wantErr: true},
		{name: "zero timeout", mutate: func(c *GlobalConfig) { c.Timeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnv(lookupFrom(nil))
			require.NoError(t, err)
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	// Register restores, then start from an unset variable.
	t.Setenv(EnvServerURL, "")
	require.NoError(t, os.Unsetenv(EnvServerURL))
	t.Setenv(EnvLogLevel, "error")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMINCTL_SERVER=https://from-file.example.com\nADMINCTL_LOG_LEVEL=debug\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-file.example.com", cfg.ServerURL)
	assert.Equal(t, "error", cfg.LogLevel, "existing environment wins over the file")
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestConfigContext(t *testing.T) {
	cfg := &GlobalConfig{ServerURL: DefaultServerURL}
	ctx := InjectConfig(context.Background(), cfg)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, cfg, got)
	assert.Same(t, cfg, MustFromContext(ctx))

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })
}
