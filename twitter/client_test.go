package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(context.Background(), Credentials{}, logging.NewLogger(logging.LogLevelError, nil),
		WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestClient_CreatePost(t *testing.T) {
	tests := []struct {
		name      string
		req       PostRequest
		wantReply bool
	}{
		{name: "post", req: PostRequest{Text: "The void stares back."}},
		{name: "reply", req: PostRequest{Text: "@sama no.", InReplyTo: "99"}, wantReply: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/2/tweets", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.req.Text, body["text"])
				if tt.wantReply {
					assert.Equal(t, map[string]interface{}{"in_reply_to_tweet_id": "99"}, body["reply"])
				} else {
					assert.NotContains(t, body, "reply")
				}

				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"data":{"id":"1234","text":"ignored"}}`))
			})

			id, err := c.CreatePost(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "1234", id)
		})
	}
}

func TestClient_CreatePost_Errors(t *testing.T) {
	reset := time.Now().Add(10 * time.Minute).Unix()

	tests := []struct {
		name   string
		status int
		header map[string]string
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			header: map[string]string{
				"x-rate-limit-reset":     strconv.FormatInt(reset, 10),
				"x-rate-limit-remaining": "0",
				"Retry-After":            "30",
			},
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				require.True(t, errors.As(err, &rl))
				assert.Equal(t, reset, rl.Reset.Unix())
				assert.Equal(t, 0, rl.Remaining)
				assert.Equal(t, 30*time.Second, rl.RetryAfter)
				assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
			},
		},
		{
			name:   "rate limited without headers",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				require.True(t, errors.As(err, &rl))
				assert.True(t, rl.Reset.IsZero())
				assert.Equal(t, -1, rl.Remaining)
				assert.Zero(t, rl.RetryAfter)
			},
		},
		{
			name:   "server error",
			status: http.StatusServiceUnavailable,
			body:   "overloaded",
			check: func(t *testing.T, err error) {
				var se *ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"title":"Forbidden","detail":"You are not allowed to create a Tweet with duplicate content."}`,
			check: func(t *testing.T, err error) {
				var ae *APIError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, "Forbidden", ae.Title)
				assert.Contains(t, err.Error(), "duplicate content")
				assert.Equal(t, http.StatusForbidden, StatusCode(err))
			},
		},
		{
			name:   "ok without data",
			status: http.StatusOK,
			body:   `{"errors":[{"title":"Invalid Request","detail":"text too long"}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "text too long")
				assert.Equal(t, 0, StatusCode(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreatePost(context.Background(), PostRequest{Text: "hello"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_Users(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/me":
			_, _ = w.Write([]byte(`{"data":{"id":"1","name":"Lemniscate","username":"lemniscate"}}`))
		case "/2/users/by/username/sama":
			_, _ = w.Write([]byte(`{"data":{"id":"2","name":"Sam","username":"sama"}}`))
		default:
			_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find user"}]}`))
		}
	})

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &User{ID: "1", Name: "Lemniscate", Username: "lemniscate"}, me)

	u, err := c.UserByUsername(context.Background(), "sama")
	require.NoError(t, err)
	assert.Equal(t, "2", u.ID)

	_, err = c.UserByUsername(context.Background(), "nobody")
	assert.ErrorContains(t, err, "Could not find user")
}

func TestClient_RecentPosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/2/tweets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("max_results"))
		assert.Equal(t, "replies,retweets", q.Get("exclude"))
		assert.Equal(t, "100", q.Get("since_id"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"102","text":"newest","author_id":"2","created_at":"2025-01-01T12:00:00.000Z"},
			{"id":"101","text":"older","author_id":"2","created_at":"2025-01-01T11:00:00.000Z"}
		],"meta":{"newest_id":"102"}}`))
	})

	posts, err := c.RecentPosts(context.Background(), "2", "100", 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "102", posts[0].ID)
	assert.Equal(t, "2", posts[0].AuthorID)
	assert.Equal(t, 12, posts[0].CreatedAt.Hour())
}

func TestClient_RecentPosts_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("since_id"))
		_, _ = w.Write([]byte(`{"meta":{"result_count":0}}`))
	})

	posts, err := c.RecentPosts(context.Background(), "2", "", 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestOAuthClient(t *testing.T) {
	creds := Credentials{ClientID: "id", AccessToken: "a", RefreshToken: "r"}
	hc := oauthClient(context.Background(), creds)
	assert.Equal(t, 30*time.Second, hc.Timeout)
	assert.NotNil(t, hc.Transport)
}
