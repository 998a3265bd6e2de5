package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/frameforge/giftstorage/internal/httputil"
)

// Client talks to the payment coordinator's HTTP API.
type Client struct {
	sc        *httputil.ServiceClient
	projectID string
}

// ClientConfig configures the coordinator client.
type ClientConfig struct {
	BaseURL   string
	ProjectID string
	// Timeout bounds every call including WaitForSession; the provider holds
	// the connection open until settlement or its own internal deadline.
	Timeout time.Duration
}

// NewClient creates a coordinator client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		sc: httputil.NewServiceClient(httputil.ServiceClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		}),
		projectID: cfg.ProjectID,
	}
}

type createSessionResponse struct {
	Session
	UnsignedTransaction *UnsignedTransaction `json:"unsignedTransaction"`
}

// CreateSession mints a new payment session.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, *UnsignedTransaction, error) {
	if req.ProjectID == "" {
		req.ProjectID = c.projectID
	}

	var resp createSessionResponse
	if err := c.sc.PostJSON(ctx, "/api/sessions", req, &resp); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	if resp.ID == "" {
		return nil, nil, fmt.Errorf("create session: coordinator returned no session id")
	}
	return &resp.Session, resp.UnsignedTransaction, nil
}

// SessionByPaymentTransaction looks up a session by payment transaction hash.
func (c *Client) SessionByPaymentTransaction(ctx context.Context, chainID, txHash string) (*Session, error) {
	path := "/api/sessions/by-payment-transaction?chainId=" + url.QueryEscape(chainID) +
		"&hash=" + url.QueryEscape(txHash)

	var session Session
	if err := c.sc.GetJSON(ctx, path, &session); err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	return &session, nil
}

// WaitForSession blocks until the provider reports settlement or times out.
func (c *Client) WaitForSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/wait"
	if err := c.sc.PostJSON(ctx, path, nil, &session); err != nil {
		return nil, fmt.Errorf("wait for session: %w", err)
	}
	return &session, nil
}
