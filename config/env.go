package config

import (
	"fmt"
	"os"
	"strings"
)

// DefaultOpenAIBaseURL is used when OPENAI_BASE_URL is unset.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// DefaultModel is used when MODEL is unset.
const DefaultModel = "gpt-4o-mini"

// Env holds credentials and endpoints read from environment variables.
type Env struct {
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string

	TwitterClientID     string
	TwitterClientSecret string
	TwitterAccessToken  string
	TwitterRefreshToken string

	PostgresURL           string
	DiscordSecret         string
	DiscordAlertChannelID string
	DiscordAlertUserID    string

	OnePasswordToken string
}

// ConfigurationError lists required environment variables that are missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnv reads the environment. Optional endpoints get their defaults.
func LoadEnv() Env {
	return Env{
		OpenAIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		Model:                 getEnv("MODEL", DefaultModel),
		TwitterClientID:       os.Getenv("TWITTER_CLIENT_ID"),
		TwitterClientSecret:   os.Getenv("TWITTER_CLIENT_SECRET"),
		TwitterAccessToken:    os.Getenv("TWITTER_ACCESS_TOKEN"),
		TwitterRefreshToken:   os.Getenv("TWITTER_REFRESH_TOKEN"),
		PostgresURL:           os.Getenv("POSTGRES_URL"),
		DiscordSecret:         os.Getenv("DISCORD_SECRET"),
		DiscordAlertChannelID: os.Getenv("DISCORD_ALERT_CHANNEL_ID"),
		DiscordAlertUserID:    os.Getenv("DISCORD_ALERT_USER_ID"),
		OnePasswordToken:      os.Getenv("OP_SA"),
	}
}

// Required maps each required variable name to its field.
func (e *Env) Required() []Field {
	return []Field{
		{Name: "OPENAI_API_KEY", Value: &e.OpenAIKey},
		{Name: "TWITTER_CLIENT_ID", Value: &e.TwitterClientID},
		{Name: "TWITTER_ACCESS_TOKEN", Value: &e.TwitterAccessToken},
		{Name: "TWITTER_REFRESH_TOKEN", Value: &e.TwitterRefreshToken},
	}
}

// Optional maps the optional secret variables to their fields.
func (e *Env) Optional() []Field {
	return []Field{
		{Name: "TWITTER_CLIENT_SECRET", Value: &e.TwitterClientSecret},
		{Name: "POSTGRES_URL", Value: &e.PostgresURL},
		{Name: "DISCORD_SECRET", Value: &e.DiscordSecret},
	}
}

// Field is a named, settable environment value.
type Field struct {
	Name  string
	Value *string
}

// Validate returns a *ConfigurationError naming every missing required variable.
func (e *Env) Validate() error {
	var missing []string
	for _, f := range e.Required() {
		if strings.TrimSpace(*f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
