// Package xmtp verifies xmtp-originated frame requests against the external
// frame validator service. Only the classifier consumes it.
package xmtp

import (
	"context"
	"fmt"
	"time"

	"github.com/frameforge/giftstorage/internal/httputil"
)

// Verifier checks the signature material of an xmtp frame envelope and
// returns the wallet address it is bound to.
type Verifier interface {
	Verify(ctx context.Context, envelope []byte) (string, error)
}

// ValidatorClient verifies envelopes against a frames-validator HTTP service.
type ValidatorClient struct {
	sc *httputil.ServiceClient
}

// ValidatorConfig configures the validator client.
type ValidatorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewValidatorClient creates a validator-backed verifier.
func NewValidatorClient(cfg ValidatorConfig) *ValidatorClient {
	return &ValidatorClient{
		sc: httputil.NewServiceClient(httputil.ServiceClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}),
	}
}

type validateResponse struct {
	VerifiedWalletAddress string `json:"verifiedWalletAddress"`
}

// Verify posts the raw envelope to the validator. Any validator failure is a
// verification failure; callers must fail the request rather than downgrade.
func (c *ValidatorClient) Verify(ctx context.Context, envelope []byte) (string, error) {
	resp, err := c.sc.Do(ctx, "POST", "/validate", rawJSON(envelope))
	if err != nil {
		return "", fmt.Errorf("frame validation: %w", err)
	}

	var out validateResponse
	if err := httputil.DecodeResponse(resp, &out); err != nil {
		return "", fmt.Errorf("frame validation: %w", err)
	}
	if out.VerifiedWalletAddress == "" {
		return "", fmt.Errorf("frame validation: no verified wallet address")
	}
	return out.VerifiedWalletAddress, nil
}

// rawJSON lets an already-encoded body pass through ServiceClient's JSON
// marshalling unchanged.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) { return r, nil }
