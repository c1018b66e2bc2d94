// Package twitter is a small client for the X API v2 endpoints the bot uses.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.twitter.com"
	authURL        = "https://twitter.com/i/oauth2/authorize"
	tokenURL       = "https://api.twitter.com/2/oauth2/token"
)

// Scopes are the user-context scopes the stored tokens must carry.
var Scopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// Credentials are the OAuth2 user-context tokens obtained out of band.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	// Expiry of AccessToken. When zero and a refresh token is present the
	// access token is refreshed before the first request.
	Expiry time.Time
}

// Client is an X API v2 client
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sends requests through hc instead of the OAuth2 client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client whose transport refreshes the access token
// with the refresh token as needed. ctx is used for token refreshes.
func NewClient(ctx context.Context, creds Credentials, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = oauthClient(ctx, creds)
	}
	return c
}

func oauthClient(ctx context.Context, creds Credentials) *http.Client {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	if creds.ClientSecret == "" {
		conf.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	}

	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.Expiry,
	}
	if tok.Expiry.IsZero() && tok.RefreshToken != "" {
		tok.Expiry = time.Now()
	}

	hc := oauth2.NewClient(ctx, conf.TokenSource(ctx, tok))
	hc.Timeout = 30 * time.Second
	return hc
}

// doRequest performs an HTTP request and decodes a 2xx JSON body into out.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("making X API request", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		rl := newRateLimitError(resp.Header, string(respBody))
		c.logger.Warn("X API rate limited", "endpoint", endpoint, "reset", rl.Reset, "remaining", rl.Remaining)
		return rl
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Error("X API server error", "status", resp.StatusCode, "body", string(respBody))
		return &ServerError{StatusCode: resp.StatusCode, Body: string(respBody)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Error("X API error", "status", resp.StatusCode, "body", string(respBody))
		return newAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "failed to decode response body")
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: string(body)}
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &problem) == nil {
		e.Title = problem.Title
		e.Detail = problem.Detail
	}
	return e
}

// apiErrors is the "errors" array X returns in place of "data" for partial failures.
type apiErrors []struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e apiErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", e[0].Title, e[0].Detail)
}
