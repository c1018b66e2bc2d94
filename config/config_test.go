package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBotConfig_Overrides(t *testing.T) {
	cfg, err := LoadBotConfig(filepath.Join("testdata", "bot.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 150*time.Minute, cfg.Interval)
	assert.Equal(t, time.Minute, cfg.FailureCooldown)
	assert.Equal(t, []string{"infinity", "the void"}, cfg.CooldownPhrases)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, 0.7, cfg.Generation.Temperature)
	assert.Equal(t, 45*time.Minute, cfg.Publisher.MaxTotalWait)
	assert.True(t, cfg.Replies.Enabled)
	assert.Equal(t, []string{"sama", "pmarca"}, cfg.Replies.Accounts)
	assert.Equal(t, 1, cfg.Replies.MaxPerCycle)

	// untouched keys keep their defaults
	def := DefaultBotConfig()
	assert.Equal(t, def.Generation.MaxTokens, cfg.Generation.MaxTokens)
	assert.Equal(t, def.Publisher.MaxAttempts, cfg.Publisher.MaxAttempts)
	assert.Equal(t, def.Publisher.DefaultRateLimitWait, cfg.Publisher.DefaultRateLimitWait)
	assert.Equal(t, def.MemoryCapacity, cfg.MemoryCapacity)
}

func TestLoadBotConfig_Defaults(t *testing.T) {
	cfg, err := LoadBotConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBotConfig(), cfg)
	assert.Equal(t, 4*time.Hour, cfg.Interval)
	assert.Equal(t, 5*time.Minute, cfg.FailureCooldown)
	assert.Empty(t, cfg.CooldownPhrases)
}

func TestLoadBotConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "nope.yaml")},
		{name: "bad yaml", path: write("bad.yaml", "interval: [")},
		{name: "bad duration", path: write("dur.yaml", "interval: soon")},
		{name: "zero interval", path: write("zero.yaml", "interval: 0s")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBotConfig(tt.path)
			assert.Error(t, err)
		})
	}
}

func setRequired(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TWITTER_CLIENT_ID", "client")
	t.Setenv("TWITTER_ACCESS_TOKEN", "access")
	t.Setenv("TWITTER_REFRESH_TOKEN", "refresh")
}

func TestEnv_Validate(t *testing.T) {
	tests := []struct {
		name    string
		unset   []string
		missing []string
	}{
		{name: "all present"},
		{name: "one missing", unset: []string{"TWITTER_ACCESS_TOKEN"}, missing: []string{"TWITTER_ACCESS_TOKEN"}},
		{
			name:    "several missing",
			unset:   []string{"TWITTER_REFRESH_TOKEN", "OPENAI_API_KEY"},
			missing: []string{"OPENAI_API_KEY", "TWITTER_REFRESH_TOKEN"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for _, k := range tt.unset {
				t.Setenv(k, "")
			}

			env := LoadEnv()
			err := env.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.missing, cerr.Missing)
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("MODEL", "")
	env := LoadEnv()
	assert.Equal(t, DefaultOpenAIBaseURL, env.OpenAIBaseURL)
	assert.Equal(t, DefaultModel, env.Model)

	t.Setenv("MODEL", "gpt-4")
	assert.Equal(t, "gpt-4", LoadEnv().Model)
}

func TestLoad(t *testing.T) {
	setRequired(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Env.OpenAIKey)
	assert.NoError(t, cfg.Env.Validate())
}
