// Package publisher posts generated text to the platform, waiting out rate
// limits and server errors.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NamiCreative/Lemniscate/journal"
	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/NamiCreative/Lemniscate/twitter"
	"github.com/jonboulle/clockwork"
)

// ErrRetriesExhausted means the attempt or total-wait ceiling was reached.
var ErrRetriesExhausted = errors.New("publish retries exhausted")

// Poster is the platform call the publisher drives.
type Poster interface {
	CreatePost(ctx context.Context, req twitter.PostRequest) (string, error)
}

// Options tunes publish pacing and the retry ceilings.
type Options struct {
	// PrePublishDelay is slept before every publish.
	PrePublishDelay time.Duration
	// MinInterval is the minimum time between two successful posts.
	MinInterval time.Duration
	// DefaultRateLimitWait is used when a 429 carries no timing headers.
	DefaultRateLimitWait time.Duration
	// ServerErrorCooldown is slept after a 5xx response.
	ServerErrorCooldown time.Duration
	MaxAttempts         int
	// MaxTotalWait bounds the time spent waiting on retries within one publish.
	MaxTotalWait time.Duration
}

// DefaultOptions returns the pacing used by the running bot.
func DefaultOptions() Options {
	return Options{
		PrePublishDelay:      5 * time.Second,
		MinInterval:          time.Minute,
		DefaultRateLimitWait: 15 * time.Minute,
		ServerErrorCooldown:  5 * time.Minute,
		MaxAttempts:          10,
		MaxTotalWait:         2 * time.Hour,
	}
}

// Result describes a successful publish.
type Result struct {
	ID       string
	PostedAt time.Time
	Attempts int
}

// FatalError is a publish failure that was written to the journal.
type FatalError struct {
	Text     string
	Status   int
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("publish failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Publisher is used by the main loop only and is not safe for concurrent use.
type Publisher struct {
	poster   Poster
	journal  journal.Writer
	clock    clockwork.Clock
	opts     Options
	logger   *logging.Logger
	lastPost time.Time
	// blockedUntil is the latest rate-limit reset seen. It outlives the
	// publish that hit it.
	blockedUntil time.Time
}

// New builds a Publisher. Zero retry settings take their defaults; zero
// delays disable the delay. A nil clock uses the real clock.
func New(poster Poster, j journal.Writer, opts Options, clock clockwork.Clock, logger *logging.Logger) *Publisher {
	def := DefaultOptions()
	if opts.DefaultRateLimitWait <= 0 {
		opts.DefaultRateLimitWait = def.DefaultRateLimitWait
	}
	if opts.ServerErrorCooldown <= 0 {
		opts.ServerErrorCooldown = def.ServerErrorCooldown
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.MaxTotalWait <= 0 {
		opts.MaxTotalWait = def.MaxTotalWait
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		poster:  poster,
		journal: j,
		clock:   clock,
		opts:    opts,
		logger:  logger,
	}
}

// LastPost is the time of the last successful publish, zero if none.
func (p *Publisher) LastPost() time.Time {
	return p.lastPost
}

// RateLimitedUntil is the time the last rate limit lifts, zero if none was
// seen. No post is attempted before it.
func (p *Publisher) RateLimitedUntil() time.Time {
	return p.blockedUntil
}

// Publish posts text.
func (p *Publisher) Publish(ctx context.Context, text string) (*Result, error) {
	return p.publish(ctx, twitter.PostRequest{Text: text})
}

// PublishReply posts text as a reply to the post inReplyTo.
func (p *Publisher) PublishReply(ctx context.Context, text, inReplyTo string) (*Result, error) {
	return p.publish(ctx, twitter.PostRequest{Text: text, InReplyTo: inReplyTo})
}

func (p *Publisher) publish(ctx context.Context, req twitter.PostRequest) (*Result, error) {
	logger := p.logger.WithContext(ctx)

	if err := p.sleep(ctx, p.opts.PrePublishDelay); err != nil {
		return nil, err
	}
	if !p.lastPost.IsZero() && p.opts.MinInterval > 0 {
		wait := p.lastPost.Add(p.opts.MinInterval).Sub(p.clock.Now())
		if wait > 0 {
			logger.Info("waiting for minimum post interval", "wait", wait.String())
			if err := p.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	if wait := p.blockedUntil.Sub(p.clock.Now()); wait > 0 {
		logger.Info("waiting for rate limit reset", "wait", wait.String(), "until", p.blockedUntil)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	var waited time.Duration
	for attempt := 1; ; attempt++ {
		id, err := p.poster.CreatePost(ctx, req)
		if err == nil {
			p.lastPost = p.clock.Now()
			metrics.PublishAttempts.WithLabelValues("success").Inc()
			logger.Info("post published", "id", id, "attempts", attempt, "in_reply_to", req.InReplyTo)
			return &Result{ID: id, PostedAt: p.lastPost, Attempts: attempt}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var (
			rl   *twitter.RateLimitError
			se   *twitter.ServerError
			wait time.Duration
		)
		switch {
		case errors.As(err, &rl):
			metrics.PublishAttempts.WithLabelValues("rate_limited").Inc()
			wait = p.rateLimitWait(rl)
			if until := p.clock.Now().Add(wait); until.After(p.blockedUntil) {
				p.blockedUntil = until
			}
		case errors.As(err, &se):
			metrics.PublishAttempts.WithLabelValues("server_error").Inc()
			wait = p.opts.ServerErrorCooldown
		default:
			return nil, p.fail(ctx, req, err, attempt)
		}

		if attempt >= p.opts.MaxAttempts || waited+wait > p.opts.MaxTotalWait {
			return nil, p.fail(ctx, req, fmt.Errorf("%w: %w", ErrRetriesExhausted, err), attempt)
		}

		logger.Warn("publish deferred",
			"error", err.Error(),
			"status", twitter.StatusCode(err),
			"attempt", attempt,
			"wait", wait.String())
		metrics.PublishWaitSeconds.Observe(wait.Seconds())
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
		waited += wait
	}
}

// rateLimitWait waits until one second past the reset time, at least
// Retry-After, or the default when neither header was sent.
func (p *Publisher) rateLimitWait(rl *twitter.RateLimitError) time.Duration {
	var wait time.Duration
	hasTiming := false
	if !rl.Reset.IsZero() {
		wait = max(rl.Reset.Sub(p.clock.Now()), 0) + time.Second
		hasTiming = true
	}
	if rl.RetryAfter > 0 {
		wait = max(wait, rl.RetryAfter)
		hasTiming = true
	}
	if !hasTiming {
		return p.opts.DefaultRateLimitWait
	}
	return wait
}

func (p *Publisher) fail(ctx context.Context, req twitter.PostRequest, err error, attempts int) error {
	metrics.PublishAttempts.WithLabelValues("fatal").Inc()
	fe := &FatalError{
		Text:     req.Text,
		Status:   twitter.StatusCode(err),
		Attempts: attempts,
		Err:      err,
	}
	p.logger.WithContext(ctx).Error("publish failed",
		"error", err.Error(),
		"status", fe.Status,
		"attempts", attempts,
		"text", req.Text)

	if p.journal != nil {
		entry := journal.Entry{
			Time:     p.clock.Now(),
			Text:     req.Text,
			Error:    err.Error(),
			Status:   fe.Status,
			Attempts: attempts,
		}
		if jerr := p.journal.Record(ctx, entry); jerr != nil {
			p.logger.Error("failed to write failure journal", "error", jerr.Error())
		}
	}
	return fe
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := p.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
