// Package middleware provides HTTP middleware for the frame server.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/frameforge/giftstorage/internal/httputil"
	"github.com/frameforge/giftstorage/internal/logging"
	"github.com/frameforge/giftstorage/internal/xmtp"
)

// Origin protocol tags attached to every classified request.
const (
	ClientXMTP      = "xmtp"
	ClientFarcaster = "farcaster"
)

const maxEnvelopeBytes = 1 << 20

// Classifier inspects inbound interaction requests, tags them with an
// origin-protocol label, and verifies the actor address for xmtp requests.
// No other component reads raw request bodies for this purpose.
type Classifier struct {
	verifier xmtp.Verifier
	logger   *logging.Logger
}

// NewClassifier creates the classifier middleware.
func NewClassifier(verifier xmtp.Verifier, logger *logging.Logger) *Classifier {
	return &Classifier{verifier: verifier, logger: logger}
}

// Handler returns the middleware handler. Only POST requests carry a body to
// classify; everything else is tagged farcaster with no verified address.
func (c *Classifier) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			ctx := logging.WithClientProtocol(r.Context(), ClientFarcaster)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeBytes))
		if err != nil {
			c.logger.WithContext(r.Context()).WithError(err).Warn("failed to read request body")
			body = nil
		}
		r.Body.Close()
		// Downstream handlers re-read the body.
		r.Body = io.NopCloser(bytes.NewReader(body))

		envelope := parseEnvelope(body)
		ctx := r.Context()

		if protocol, _ := envelope["clientProtocol"].(string); strings.Contains(protocol, ClientXMTP) {
			// Trust-boundary check: a failure here fails the request, it is
			// never downgraded to an unverified tag.
			wallet, err := c.verifier.Verify(ctx, body)
			if err != nil {
				c.logger.WithContext(ctx).WithError(err).Warn("xmtp frame verification failed")
				httputil.Unauthorized(w, "frame verification failed")
				return
			}
			ctx = logging.WithClientProtocol(ctx, ClientXMTP)
			ctx = logging.WithVerifiedWallet(ctx, wallet)
		} else {
			ctx = logging.WithClientProtocol(ctx, ClientFarcaster)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseEnvelope decodes the request body, substituting an empty object for
// anything malformed.
func parseEnvelope(body []byte) map[string]interface{} {
	envelope := map[string]interface{}{}
	if len(body) == 0 {
		return envelope
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return map[string]interface{}{}
	}
	return envelope
}
