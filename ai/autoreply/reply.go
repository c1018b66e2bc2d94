// Package autoreply writes replies to posts from watched accounts.
package autoreply

import (
	"context"
	"errors"
	"fmt"

	"github.com/NamiCreative/Lemniscate/ai"
	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/NamiCreative/Lemniscate/personality"
	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyReply is returned when the completion is empty after cleanup.
var ErrEmptyReply = errors.New("empty reply")

// Options sets the completion parameters for replies.
type Options struct {
	MaxTokens   int
	Temperature float64
	Starters    []string
}

// DefaultOptions returns the reply settings the bot ships with.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   60,
		Temperature: 0.9,
		Starters:    ai.DefaultStarters,
	}
}

// Post is the post being replied to.
type Post struct {
	ID       string
	Username string
	Text     string
}

// Client generates replies in the bot's current voice. It reads the
// personality but never advances it.
type Client struct {
	llm         llms.Model
	personality *personality.State
	opts        Options
	logger      *logging.Logger
}

func Setup(llm llms.Model, state *personality.State, opts Options, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	def := DefaultOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Starters == nil {
		opts.Starters = def.Starters
	}
	return &Client{
		llm:         llm,
		personality: state,
		opts:        opts,
		logger:      logger,
	}
}

// Generate returns "@username reply", cleaned and cut to fit a single post.
func (c *Client) Generate(ctx context.Context, post Post) (string, error) {
	mention := "@" + post.Username + " "
	room := ai.MaxTweetLength - ai.RuneLen(mention)

	snap := c.personality.Current()
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ai.BuildSystemPrompt(snap, room)),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf("Reply to this post: %s", post.Text)),
	}
	resp, err := c.llm.GenerateContent(ctx, msgs,
		llms.WithCandidateCount(1),
		llms.WithMaxTokens(c.opts.MaxTokens),
		llms.WithTemperature(c.opts.Temperature))
	if err != nil {
		metrics.FailedLLMGenCount.Add(1)
		return "", fmt.Errorf("failed to get llm response: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		metrics.EmptyLLMResponseCount.Add(1)
		return "", ErrEmptyReply
	}

	reply := ai.TruncateTweet(ai.CleanTweet(resp.Choices[0].Content, c.opts.Starters), room)
	if reply == "" {
		metrics.EmptyLLMResponseCount.Add(1)
		return "", ErrEmptyReply
	}

	c.logger.WithContext(ctx).Debug("reply generated",
		"post_id", post.ID,
		"username", post.Username,
		"mood", string(snap.Mood))
	return mention + reply, nil
}
