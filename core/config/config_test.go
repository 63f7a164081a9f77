package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
storage:
  seed_admin: alice
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Equal(t, "alice", cfg.Storage.SeedAdmin)
	assert.False(t, cfg.Errors.Verbose)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
storage:
  seed_admin: alice
  dir: from-file
`)
	t.Setenv("DATA_DIR", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Storage.Dir)
}

func TestNormalizeRequiresToken(t *testing.T) {
	err := Normalize(&Config{
		Storage: StorageConfig{SeedAdmin: "alice"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestNormalizeRequiresSeedAdmin(t *testing.T) {
	err := Normalize(&Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed_admin")
}

func TestNormalizeWebhookMode(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "webhook"},
		Storage:  StorageConfig{SeedAdmin: "alice"},
	}
	err := Normalize(cfg)
	require.Error(t, err)

	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com", Listen: "0.0.0.0", Port: 8443}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	err := Normalize(&Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "carrier-pigeon"},
		Storage:  StorageConfig{SeedAdmin: "alice"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_mode")
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "123:abc"},
		Storage:   StorageConfig{SeedAdmin: "alice"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback "}},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{"callback"}, cfg.RateLimit.ExcludeUpdates)

	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	require.Error(t, Normalize(cfg))
}
