// Package keepalive probes the external services the bot depends on and
// sends operator alerts.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
)

// Service is an external dependency probed before each cycle.
type Service struct {
	Name string
	URL  string
}

// UnreachableError lists the services that did not answer.
type UnreachableError struct {
	Services []string
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("services unreachable: %s", strings.Join(e.Services, ", "))
}

// Checker probes services in parallel. A service is reachable when it
// answers with any status below 500; authentication is not checked here.
type Checker struct {
	services   []Service
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
	logger     *logging.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient replaces the default client, which times out after 10 seconds.
func WithHTTPClient(c *http.Client) CheckerOption {
	return func(ch *Checker) { ch.httpClient = c }
}

// WithBackoff sets the attempts per service and the first pause between
// attempts. The pause doubles after each failed attempt.
func WithBackoff(attempts int, first time.Duration) CheckerOption {
	return func(ch *Checker) {
		if attempts > 0 {
			ch.attempts = attempts
		}
		if first >= 0 {
			ch.backoff = first
		}
	}
}

func NewChecker(services []Service, logger *logging.Logger, opts ...CheckerOption) *Checker {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Checker{
		services: services,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check probes every service and returns an *UnreachableError naming the
// ones that failed all attempts.
func (c *Checker) Check(ctx context.Context) error {
	var (
		mu     sync.Mutex
		failed []string
		eg     errgroup.Group
	)
	for _, svc := range c.services {
		eg.Go(func() error {
			ok := c.probe(ctx, svc.URL)
			if ok {
				metrics.ServiceReachable.WithLabelValues(svc.Name).Set(1)
				return nil
			}
			metrics.ServiceReachable.WithLabelValues(svc.Name).Set(0)
			c.logger.Warn("service unreachable", "service", svc.Name, "url", svc.URL)
			mu.Lock()
			failed = append(failed, svc.Name)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return &UnreachableError{Services: failed}
	}
	return nil
}

// probe performs the HTTP check with exponential backoff between attempts.
func (c *Checker) probe(ctx context.Context, url string) bool {
	backoff := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			c.logger.Error("failed to create reachability request",
				"error", err.Error(),
				"url", url)
			return false
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("reachability request failed",
				"error", err.Error(),
				"url", url,
				"attempt", attempt)
			continue
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err.Error())
		}

		if resp.StatusCode < http.StatusInternalServerError {
			return true
		}
		c.logger.Debug("reachability check returned server error",
			"status", resp.StatusCode,
			"url", url,
			"attempt", attempt)
	}
	return false
}
