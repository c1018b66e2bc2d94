// Package bot runs the generate and publish cycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NamiCreative/Lemniscate/ai/autoreply"
	"github.com/NamiCreative/Lemniscate/ai/autotweet"
	"github.com/NamiCreative/Lemniscate/config"
	"github.com/NamiCreative/Lemniscate/database"
	"github.com/NamiCreative/Lemniscate/keepalive"
	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/NamiCreative/Lemniscate/personality"
	"github.com/NamiCreative/Lemniscate/publisher"
	"github.com/NamiCreative/Lemniscate/twitter"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Generator produces accepted tweets.
type Generator interface {
	Generate(ctx context.Context) (*autotweet.Candidate, error)
	NoteEngagement()
	Mood() personality.Mood
}

// Replier writes replies to watched posts.
type Replier interface {
	Generate(ctx context.Context, post autoreply.Post) (string, error)
}

// Publisher sends posts to the platform.
type Publisher interface {
	Publish(ctx context.Context, text string) (*publisher.Result, error)
	PublishReply(ctx context.Context, text, inReplyTo string) (*publisher.Result, error)
}

// Platform is the read side of the platform API.
type Platform interface {
	Me(ctx context.Context) (*twitter.User, error)
	UserByUsername(ctx context.Context, username string) (*twitter.User, error)
	RecentPosts(ctx context.Context, userID, sinceID string, max int) ([]twitter.Post, error)
}

// Checker reports whether the external services can be reached.
type Checker interface {
	Check(ctx context.Context) error
}

// App is the application context built once by main. Checker, Alerter,
// Posts, Replier and Status are optional.
type App struct {
	Config    *config.Config
	Generator Generator
	Replier   Replier
	Publisher Publisher
	Platform  Platform
	Checker   Checker
	Alerter   keepalive.Alerter
	Posts     database.PostWriter
	Status    *metrics.StatusBoard
	Clock     clockwork.Clock
	Logger    *logging.Logger

	self     *twitter.User
	watched  map[string]*watchedAccount
	failures int
}

func (a *App) logger() *logging.Logger {
	if a.Logger == nil {
		a.Logger = logging.Default()
	}
	return a.Logger
}

func (a *App) clock() clockwork.Clock {
	if a.Clock == nil {
		a.Clock = clockwork.NewRealClock()
	}
	return a.Clock
}

func (a *App) updateStatus(fn func(*metrics.Status)) {
	if a.Status != nil {
		a.Status.Update(fn)
	}
}

// IsConfigurationError reports whether err is caused by missing credentials.
func IsConfigurationError(err error) bool {
	var cerr *config.ConfigurationError
	return errors.As(err, &cerr)
}

// RunCycle generates one tweet and publishes it, then runs the reply pass
// when replies are enabled. A *config.ConfigurationError means the bot cannot
// run at all.
func (a *App) RunCycle(ctx context.Context) error {
	ctx = logging.WithTraceID(ctx, uuid.New())
	logger := a.logger().WithContext(ctx)
	start := a.clock().Now()
	defer func() {
		metrics.CycleDuration.Observe(a.clock().Since(start).Seconds())
	}()

	if err := a.Config.Env.Validate(); err != nil {
		return err
	}
	if a.Checker != nil && a.Config.Bot.Reachability.Enabled {
		if err := a.Checker.Check(ctx); err != nil {
			return fmt.Errorf("service check failed: %w", err)
		}
	}
	if err := a.resolveSelf(ctx); err != nil {
		return err
	}

	cand, err := a.Generator.Generate(ctx)
	if err != nil {
		return fmt.Errorf("error generating tweet: %w", err)
	}

	res, err := a.Publisher.Publish(ctx, cand.Text)
	if err != nil {
		logger.Error("failed to publish tweet",
			"error", err.Error(),
			"prompt", cand.Prompt.Text,
			"text", cand.Text,
			"status", twitter.StatusCode(err))
		return fmt.Errorf("error publishing tweet: %w", err)
	}
	metrics.PostsPublishedCount.Add(1)
	logger.Info("tweet published",
		"id", res.ID,
		"prompt", cand.Prompt.Text,
		"category", string(cand.Prompt.Category),
		"mood", string(cand.Mood),
		"text", cand.Text)

	a.record(ctx, database.Post{
		PlatformID:     res.ID,
		Text:           cand.Text,
		Prompt:         cand.Prompt.Text,
		PromptCategory: string(cand.Prompt.Category),
		Mood:           string(cand.Mood),
		CreatedAt:      res.PostedAt,
	})
	a.updateStatus(func(s *metrics.Status) {
		s.LastPostID = res.ID
		s.LastPostText = cand.Text
		s.LastPostAt = res.PostedAt
	})

	if a.Config.Bot.Replies.Enabled && a.Replier != nil {
		if n := a.replyPass(ctx); n > 0 {
			logger.Info("reply pass finished", "replies", n)
		}
	}
	return nil
}

func (a *App) resolveSelf(ctx context.Context) error {
	if a.self != nil {
		return nil
	}
	me, err := a.Platform.Me(ctx)
	if err != nil {
		return fmt.Errorf("error resolving account: %w", err)
	}
	a.self = me
	a.logger().Info("running as account", "id", me.ID, "username", me.Username)
	return nil
}

// record stores a published post when a post store is configured. A storage
// failure is logged and never fails the cycle.
func (a *App) record(ctx context.Context, post database.Post) {
	if a.Posts == nil {
		return
	}
	post.ID = uuid.New()
	if err := a.Posts.InsertPost(ctx, post); err != nil {
		a.logger().WithContext(ctx).Warn("failed to record post", "error", err.Error(), "platform_id", post.PlatformID)
	}
}

// afterCycle updates the failure count, metrics, alerts and status board.
// next is the wait before the following cycle.
func (a *App) afterCycle(ctx context.Context, err error, next time.Duration) {
	logger := a.logger()
	if err == nil {
		a.failures = 0
		metrics.CyclesTotal.WithLabelValues("success").Inc()
	} else {
		a.failures++
		metrics.CyclesTotal.WithLabelValues("failure").Inc()
		logger.Error("cycle failed",
			"error", err.Error(),
			"consecutive_failures", a.failures,
			"status", twitter.StatusCode(err))
		a.maybeAlert(ctx, err)
	}

	failures := a.failures
	nextAt := a.clock().Now().Add(next)
	a.updateStatus(func(s *metrics.Status) {
		s.Cycles++
		s.Mood = string(a.Generator.Mood())
		s.ConsecutiveFailures = failures
		s.NextCycleAt = nextAt
		if err != nil {
			s.LastError = err.Error()
		} else {
			s.LastError = ""
		}
	})
}

// maybeAlert alerts on fatal publish errors and on every AlertEvery-th
// consecutive failure.
func (a *App) maybeAlert(ctx context.Context, err error) {
	if a.Alerter == nil {
		return
	}
	var fatal *publisher.FatalError
	every := a.Config.Bot.AlertEvery

	var msg string
	switch {
	case errors.As(err, &fatal):
		msg = fmt.Sprintf("publish failed after %d attempts (status %d): %s", fatal.Attempts, fatal.Status, fatal.Err)
	case every > 0 && a.failures%every == 0:
		msg = fmt.Sprintf("%d consecutive cycle failures, last: %s", a.failures, err)
	default:
		return
	}

	if aerr := a.Alerter.SendAlert(ctx, "lemniscate", msg); aerr != nil {
		a.logger().Error("failed to send alert", "error", aerr.Error())
	}
}

// Run cycles until ctx is canceled or the configuration is unusable. It
// sleeps Interval after a success and FailureCooldown after a failure.
func (a *App) Run(ctx context.Context) error {
	bot := a.Config.Bot
	for {
		err := a.RunCycle(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if IsConfigurationError(err) {
			a.logger().Error("configuration error, stopping", "error", err.Error())
			return err
		}

		wait := bot.Interval
		if err != nil {
			wait = bot.FailureCooldown
		}
		a.afterCycle(ctx, err, wait)

		a.logger().Info("sleeping until next cycle", "wait", wait.String())
		if err := a.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// RunBounded runs n cycles with delay between them. It returns the joined
// errors of every failed cycle.
func (a *App) RunBounded(ctx context.Context, n int, delay time.Duration) error {
	var errs []error
	for i := 1; i <= n; i++ {
		a.logger().Info("test cycle", "iteration", i, "of", n)
		err := a.RunCycle(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if IsConfigurationError(err) {
			return err
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("cycle %d: %w", i, err))
		}
		a.afterCycle(ctx, err, delay)

		if i < n {
			if err := a.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return errors.Join(errs...)
}

func (a *App) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := a.clock().NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
