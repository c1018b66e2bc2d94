package twitter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// User is an account as returned by the users endpoints.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Me returns the account the tokens belong to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	return c.getUser(ctx, "/2/users/me")
}

// UserByUsername looks up an account by handle, without the leading @.
func (c *Client) UserByUsername(ctx context.Context, username string) (*User, error) {
	return c.getUser(ctx, "/2/users/by/username/"+url.PathEscape(username))
}

func (c *Client) getUser(ctx context.Context, endpoint string) (*User, error) {
	var resp struct {
		Data   *User     `json:"data"`
		Errors apiErrors `json:"errors"`
	}
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		if err := resp.Errors.err(); err != nil {
			return nil, errors.Wrap(err, "user lookup failed")
		}
		return nil, errors.New("user lookup failed: empty response")
	}
	return resp.Data, nil
}
