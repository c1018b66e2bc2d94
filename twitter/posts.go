package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// PostRequest is the body of POST /2/tweets. InReplyTo is optional.
type PostRequest struct {
	Text      string
	InReplyTo string
}

type createPostBody struct {
	Text  string     `json:"text"`
	Reply *replyBody `json:"reply,omitempty"`
}

type replyBody struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

// Post is a post returned by the timeline endpoints.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePost publishes a post and returns its ID.
func (c *Client) CreatePost(ctx context.Context, req PostRequest) (string, error) {
	body := createPostBody{Text: req.Text}
	if req.InReplyTo != "" {
		body.Reply = &replyBody{InReplyToTweetID: req.InReplyTo}
	}

	var resp struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
		Errors apiErrors `json:"errors"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/2/tweets", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		if err := resp.Errors.err(); err != nil {
			return "", errors.Wrap(err, "post not created")
		}
		return "", errors.New("post not created: empty response")
	}
	return resp.Data.ID, nil
}

// RecentPosts returns original posts by userID newer than sinceID, newest
// first. Replies and reposts are excluded. An empty sinceID returns the
// latest page.
func (c *Client) RecentPosts(ctx context.Context, userID, sinceID string, max int) ([]Post, error) {
	// the endpoint accepts 5 to 100
	if max < 5 {
		max = 5
	}
	if max > 100 {
		max = 100
	}

	query := url.Values{}
	query.Set("max_results", strconv.Itoa(max))
	query.Set("exclude", "replies,retweets")
	query.Set("tweet.fields", "author_id,created_at")
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}

	var resp struct {
		Data []Post `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/2/users/%s/tweets", url.PathEscape(userID)), query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
