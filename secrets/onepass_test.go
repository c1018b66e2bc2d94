package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/NamiCreative/Lemniscate/config"
	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := m[ref]; ok {
		return v, nil
	}
	return "", errors.New("item not found")
}

func TestFill(t *testing.T) {
	r := mapResolver{
		"op://lemniscate/OPENAI_API_KEY/credential":        "sk-from-vault",
		"op://lemniscate/TWITTER_CLIENT_ID/credential":     "client-from-vault",
		"op://lemniscate/TWITTER_ACCESS_TOKEN/credential":  "access-from-vault",
		"op://lemniscate/TWITTER_REFRESH_TOKEN/credential": "refresh-from-vault",
		"op://lemniscate/POSTGRES_URL/credential":          "postgres://vault",
	}
	env := config.Env{OpenAIKey: "sk-from-env"}

	err := Fill(context.Background(), r, &env, logging.NewLogger(logging.LogLevelError, nil))

	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", env.OpenAIKey, "environment wins")
	assert.Equal(t, "client-from-vault", env.TwitterClientID)
	assert.Equal(t, "refresh-from-vault", env.TwitterRefreshToken)
	assert.Equal(t, "postgres://vault", env.PostgresURL)
	assert.Empty(t, env.DiscordSecret, "missing optional secrets are skipped")
	assert.NoError(t, env.Validate())
}

func TestFill_RequiredMissing(t *testing.T) {
	env := config.Env{}
	err := Fill(context.Background(), mapResolver{}, &env, logging.NewLogger(logging.LogLevelError, nil))
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestInit_NoToken(t *testing.T) {
	env := config.Env{}
	assert.NoError(t, Init(context.Background(), &env, nil))
	assert.Empty(t, env.OpenAIKey)
}
