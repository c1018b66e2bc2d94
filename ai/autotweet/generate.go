// Package autotweet generates original posts from the prompt catalog and the
// current personality.
package autotweet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NamiCreative/Lemniscate/ai"
	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/memory"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/NamiCreative/Lemniscate/personality"
	"github.com/NamiCreative/Lemniscate/prompts"
	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrGenerationExhausted means every attempt produced a rejected candidate.
	ErrGenerationExhausted = errors.New("no acceptable tweet generated")
	// ErrEmptyCompletion is returned when the completion has no choices.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Rejection reasons recorded on a Candidate.
const (
	ReasonEmpty     = "empty"
	ReasonDuplicate = "duplicate"
	ReasonCooldown  = "cooldown"
)

// Options bounds generation and sets the completion parameters.
type Options struct {
	MaxAttempts  int
	MaxTokens    int
	Temperature  float64
	MaxLength    int
	Starters     []string
	AttemptPause time.Duration
}

// DefaultOptions returns the generation settings the bot ships with.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  5,
		MaxTokens:    70,
		Temperature:  0.9,
		MaxLength:    ai.MaxTweetLength,
		Starters:     ai.DefaultStarters,
		AttemptPause: 2 * time.Second,
	}
}

// Candidate is one generated text and whether it was accepted.
type Candidate struct {
	Prompt   prompts.Prompt
	Mood     personality.Mood
	Raw      string
	Cleaned  string
	Text     string
	Accepted bool
	Reason   string
}

// Client owns the generation state. It is used by the main loop only.
type Client struct {
	llm         llms.Model
	catalog     *prompts.Catalog
	personality *personality.State
	memory      *memory.TweetMemory
	cooldown    *memory.PhraseCooldown
	opts        Options
	engaged     bool
	logger      *logging.Logger
}

// Setup creates the generation controller. Zero options take their defaults.
func Setup(llm llms.Model, catalog *prompts.Catalog, state *personality.State, mem *memory.TweetMemory, cooldown *memory.PhraseCooldown, opts Options, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.MaxLength <= 0 || opts.MaxLength > ai.MaxTweetLength {
		opts.MaxLength = ai.MaxTweetLength
	}
	if opts.Starters == nil {
		opts.Starters = def.Starters
	}
	if opts.AttemptPause <= 0 {
		// go-retry rejects a zero constant backoff
		opts.AttemptPause = time.Millisecond
	}
	if cooldown == nil {
		cooldown = memory.NewPhraseCooldown(nil, 0)
	}
	return &Client{
		llm:         llm,
		catalog:     catalog,
		personality: state,
		memory:      mem,
		cooldown:    cooldown,
		opts:        opts,
		logger:      logger,
	}
}

// NoteEngagement makes the next accepted tweet force a mood change.
func (c *Client) NoteEngagement() {
	c.engaged = true
}

// Mood is the current personality mood.
func (c *Client) Mood() personality.Mood {
	return c.personality.Mood()
}

// Generate produces an accepted tweet. Rejected attempts and completion
// errors are retried up to MaxAttempts. When the last attempt failed on the
// completion API that error is returned, otherwise ErrGenerationExhausted.
func (c *Client) Generate(ctx context.Context) (*Candidate, error) {
	logger := c.logger.WithContext(ctx)

	var (
		accepted *Candidate
		attempt  int
	)
	backoff := retry.WithMaxRetries(uint64(c.opts.MaxAttempts-1), retry.NewConstant(c.opts.AttemptPause))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		cand, err := c.attempt(ctx)
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues("llm_error").Inc()
			metrics.FailedLLMGenCount.Add(1)
			logger.Warn("tweet generation attempt failed",
				"attempt", attempt,
				"prompt", cand.Prompt.Text,
				"error", err.Error())
			return retry.RetryableError(err)
		}
		if !cand.Accepted {
			metrics.GenerationAttempts.WithLabelValues(cand.Reason).Inc()
			logger.Info("tweet candidate rejected",
				"attempt", attempt,
				"reason", cand.Reason,
				"prompt", cand.Prompt.Text,
				"text", cand.Text)
			return retry.RetryableError(fmt.Errorf("%w: last candidate rejected as %s", ErrGenerationExhausted, cand.Reason))
		}
		accepted = cand
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrGenerationExhausted) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("tweet generation failed after %d attempts: %w", attempt, err)
	}

	c.accept(accepted)
	metrics.GenerationAttempts.WithLabelValues("accepted").Inc()
	metrics.SuccessfulLLMGenCount.Add(1)
	logger.Info("tweet generated",
		"attempts", attempt,
		"prompt", accepted.Prompt.Text,
		"category", string(accepted.Prompt.Category),
		"mood", string(accepted.Mood),
		"text", accepted.Text)
	return accepted, nil
}

// attempt runs one pick, complete, clean and check round. The returned
// candidate is never nil.
func (c *Client) attempt(ctx context.Context) (*Candidate, error) {
	prompt := c.catalog.Pick()
	snap := c.personality.Current()
	cand := &Candidate{Prompt: prompt, Mood: snap.Mood}

	raw, err := c.complete(ctx, ai.BuildSystemPrompt(snap, c.opts.MaxLength), prompt.Text)
	if err != nil {
		return cand, err
	}
	cand.Raw = raw
	cand.Cleaned = ai.CleanTweet(raw, c.opts.Starters)
	if cand.Cleaned == "" {
		metrics.EmptyLLMResponseCount.Add(1)
		cand.Reason = ReasonEmpty
		return cand, nil
	}

	cand.Text = Decorate(cand.Cleaned, snap.Prefix, snap.Suffix, c.opts.MaxLength)

	if c.memory.IsDuplicate(cand.Text) {
		cand.Reason = ReasonDuplicate
		return cand, nil
	}
	if phrase, blocked := c.cooldown.Blocked(cand.Text); blocked {
		cand.Reason = ReasonCooldown
		c.logger.Debug("cooldown phrase reused", "phrase", phrase)
		return cand, nil
	}
	cand.Accepted = true
	return cand, nil
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.llm.GenerateContent(ctx, msgs,
		llms.WithCandidateCount(1),
		llms.WithMaxTokens(c.opts.MaxTokens),
		llms.WithTemperature(c.opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("failed to get llm response: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}

func (c *Client) accept(cand *Candidate) {
	c.memory.Add(cand.Text)
	c.cooldown.Record(cand.Text)

	engaged := c.engaged
	c.engaged = false
	if t := c.personality.Advance(engaged); t != nil {
		metrics.MoodTransitions.WithLabelValues(string(t.To)).Inc()
	}
}

// Decorate truncates text so that prefix + text + suffix fits in limit runes
// and returns the decorated result.
func Decorate(text, prefix, suffix string, limit int) string {
	room := limit - ai.RuneLen(prefix) - ai.RuneLen(suffix)
	return prefix + ai.TruncateTweet(text, room) + suffix
}
