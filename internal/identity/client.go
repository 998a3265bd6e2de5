package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/frameforge/giftstorage/internal/httputil"
)

// Client resolves users against a Neynar-compatible HTTP API.
type Client struct {
	sc *httputil.ServiceClient
}

// ClientConfig configures the resolver client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a resolver client. An empty API key is accepted; the
// upstream will reject calls at request time.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		sc: httputil.NewServiceClient(httputil.ServiceClientConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Timeout:    cfg.Timeout,
			MaxRetries: 1,
		}),
	}
}

// SearchUser resolves a handle to its best-matching user.
func (c *Client) SearchUser(ctx context.Context, handle string) (*User, error) {
	handle = strings.TrimSpace(strings.TrimPrefix(handle, "@"))
	if handle == "" {
		return nil, ErrUserNotFound
	}

	path := "/v2/farcaster/user/search?q=" + url.QueryEscape(handle) + "&limit=1"
	resp, err := c.sc.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("identity search: %w", err)
	}
	body, err := httputil.RawBody(resp)
	if err != nil {
		return nil, fmt.Errorf("identity search: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("identity search: status %d", resp.StatusCode)
	}

	users := gjson.GetBytes(body, "result.users")
	if !users.Exists() || len(users.Array()) == 0 {
		return nil, ErrUserNotFound
	}
	return userFromJSON(users.Array()[0]), nil
}

// UserByFID fetches the profile for a known numeric identity.
func (c *Client) UserByFID(ctx context.Context, fid uint64) (*User, error) {
	path := fmt.Sprintf("/v2/farcaster/user/bulk?fids=%d", fid)
	resp, err := c.sc.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("identity bulk fetch: %w", err)
	}
	body, err := httputil.RawBody(resp)
	if err != nil {
		return nil, fmt.Errorf("identity bulk fetch: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("identity bulk fetch: status %d", resp.StatusCode)
	}

	users := gjson.GetBytes(body, "users")
	if !users.Exists() || len(users.Array()) == 0 {
		return nil, ErrUserNotFound
	}
	return userFromJSON(users.Array()[0]), nil
}

// userFromJSON extracts the fields this server cares about. The upstream
// response carries much more; everything else is ignored.
func userFromJSON(v gjson.Result) *User {
	return &User{
		FID:         v.Get("fid").Uint(),
		Username:    v.Get("username").String(),
		DisplayName: v.Get("display_name").String(),
		PfpURL:      v.Get("pfp_url").String(),
	}
}
