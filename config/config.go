// Package config holds the bot settings loaded from YAML and the credentials
// read from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BotConfig holds the tunable behavior of the bot
type BotConfig struct {
	// Interval is the sleep after a successful cycle.
	Interval time.Duration `yaml:"interval"`
	// FailureCooldown is the sleep after a failed cycle.
	FailureCooldown time.Duration `yaml:"failure_cooldown"`
	// AlertEvery sends an operator alert every N consecutive failures.
	AlertEvery int `yaml:"alert_every"`

	TestIterations int           `yaml:"test_iterations"`
	TestDelay      time.Duration `yaml:"test_delay"`

	LogFile     string `yaml:"log_file"`
	JournalPath string `yaml:"journal_path"`
	MetricsAddr string `yaml:"metrics_addr"`

	// PromptCatalog is a YAML prompt file. Empty uses the built in catalog.
	PromptCatalog      string `yaml:"prompt_catalog"`
	RecentPromptWindow int    `yaml:"recent_prompt_window"`

	MemoryCapacity  int      `yaml:"memory_capacity"`
	CooldownPhrases []string `yaml:"cooldown_phrases"`
	CooldownWindow  int      `yaml:"cooldown_window"`
	StartMood       string   `yaml:"start_mood"`

	Generation   GenerationConfig   `yaml:"generation"`
	Publisher    PublisherConfig    `yaml:"publisher"`
	Replies      ReplyConfig        `yaml:"replies"`
	Reachability ReachabilityConfig `yaml:"reachability"`
}

// GenerationConfig controls the tweet generator
type GenerationConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Starters     []string      `yaml:"starters"`
	AttemptPause time.Duration `yaml:"attempt_pause"`
}

// PublisherConfig controls publish pacing and retries
type PublisherConfig struct {
	PrePublishDelay      time.Duration `yaml:"pre_publish_delay"`
	MinInterval          time.Duration `yaml:"min_interval"`
	DefaultRateLimitWait time.Duration `yaml:"default_rate_limit_wait"`
	ServerErrorCooldown  time.Duration `yaml:"server_error_cooldown"`
	MaxAttempts          int           `yaml:"max_attempts"`
	MaxTotalWait         time.Duration `yaml:"max_total_wait"`
}

// ReplyConfig controls the watchlist reply pass
type ReplyConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Accounts    []string `yaml:"accounts"`
	MaxPerCycle int      `yaml:"max_per_cycle"`
	FetchMax    int      `yaml:"fetch_max"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// ReachabilityConfig controls the pre-cycle service probe
type ReachabilityConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TwitterURL string        `yaml:"twitter_url"`
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
}

// DefaultBotConfig returns the default bot configuration
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		Interval:           4 * time.Hour,
		FailureCooldown:    5 * time.Minute,
		AlertEvery:         3,
		TestIterations:     3,
		TestDelay:          10 * time.Second,
		JournalPath:        "failed_tweets.jsonl",
		MetricsAddr:        ":6060",
		RecentPromptWindow: 10,
		MemoryCapacity:     100,
		CooldownPhrases:    []string{},
		CooldownWindow:     20,
		StartMood:          "neutral",
		Generation: GenerationConfig{
			MaxAttempts:  5,
			MaxTokens:    70,
			Temperature:  0.9,
			Starters:     []string{"oh", "ah", "well", "hmm", "okay", "listen", "honestly"},
			AttemptPause: 2 * time.Second,
		},
		Publisher: PublisherConfig{
			PrePublishDelay:      5 * time.Second,
			MinInterval:          time.Minute,
			DefaultRateLimitWait: 15 * time.Minute,
			ServerErrorCooldown:  5 * time.Minute,
			MaxAttempts:          10,
			MaxTotalWait:         2 * time.Hour,
		},
		Replies: ReplyConfig{
			Enabled: false,
			Accounts: []string{
				"RaminNasibov", "sama", "0xzerebro", "liminal_bardo", "anthrupad",
				"TheMysteryDrop", "repligate", "truth_terminal", "QiaochuYuan",
				"AndyAyrey", "notthreadguy", "jyu_eth", "OpenAI", "eigenrobot",
				"elder_plinius", "deepfates", "pmarca",
			},
			MaxPerCycle: 3,
			FetchMax:    5,
			MaxTokens:   60,
		},
		Reachability: ReachabilityConfig{
			Enabled:    true,
			TwitterURL: "https://api.twitter.com",
			Attempts:   3,
			Backoff:    time.Second,
		},
	}
}

// LoadBotConfig overlays the YAML file at path on the defaults. An empty
// path returns the defaults.
func LoadBotConfig(path string) (*BotConfig, error) {
	config := DefaultBotConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse bot config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid bot config %s: %w", path, err)
	}
	return config, nil
}

func (c *BotConfig) validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("interval must be positive")
	case c.FailureCooldown <= 0:
		return fmt.Errorf("failure_cooldown must be positive")
	case c.Generation.MaxAttempts <= 0:
		return fmt.Errorf("generation.max_attempts must be positive")
	case c.Publisher.MaxAttempts <= 0:
		return fmt.Errorf("publisher.max_attempts must be positive")
	}
	return nil
}

// Config is everything main needs to build the application.
type Config struct {
	Bot *BotConfig
	Env Env
}

// Load reads the bot config at path and the credentials from the environment.
// Credentials are not validated here so that missing ones can still be
// resolved from a secret store.
func Load(path string) (*Config, error) {
	bot, err := LoadBotConfig(path)
	if err != nil {
		return nil, err
	}
	return &Config{Bot: bot, Env: LoadEnv()}, nil
}
