package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frameforge/giftstorage/internal/logging"
)

type fakeVerifier struct {
	calls  int
	wallet string
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.wallet, nil
}

type captured struct {
	client string
	wallet string
	body   string
	served bool
}

func runClassifier(t *testing.T, verifier *fakeVerifier, method, body string) (*captured, *httptest.ResponseRecorder) {
	t.Helper()

	seen := &captured{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.served = true
		seen.client = logging.GetClientProtocol(r.Context())
		seen.wallet = logging.GetVerifiedWallet(r.Context())
		b, _ := io.ReadAll(r.Body)
		seen.body = string(b)
		w.WriteHeader(http.StatusOK)
	})

	classifier := NewClassifier(verifier, logging.NewWithWriter("test", io.Discard))

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/api/frame/search", reader)
	rec := httptest.NewRecorder()
	classifier.Handler(next).ServeHTTP(rec, req)
	return seen, rec
}

func TestClassifier_GETDefaultsToFarcaster(t *testing.T) {
	verifier := &fakeVerifier{}
	seen, _ := runClassifier(t, verifier, http.MethodGet, "")

	if seen.client != ClientFarcaster {
		t.Errorf("client = %s, want farcaster", seen.client)
	}
	if seen.wallet != "" {
		t.Errorf("wallet = %s, want empty", seen.wallet)
	}
	if verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0", verifier.calls)
	}
}

func TestClassifier_NonXMTPBodyIsFarcaster(t *testing.T) {
	verifier := &fakeVerifier{}
	seen, _ := runClassifier(t, verifier, http.MethodPost,
		`{"untrustedData":{"buttonIndex":1},"trustedData":{"messageBytes":"0x"}}`)

	if seen.client != ClientFarcaster {
		t.Errorf("client = %s, want farcaster", seen.client)
	}
	if seen.wallet != "" {
		t.Errorf("wallet = %s, want empty", seen.wallet)
	}
	if verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0", verifier.calls)
	}
}

func TestClassifier_MalformedBodyIsFarcaster(t *testing.T) {
	verifier := &fakeVerifier{}
	seen, rec := runClassifier(t, verifier, http.MethodPost, `{"clientProtocol": not-json`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if seen.client != ClientFarcaster {
		t.Errorf("client = %s, want farcaster", seen.client)
	}
	if verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0", verifier.calls)
	}
}

func TestClassifier_XMTPVerified(t *testing.T) {
	verifier := &fakeVerifier{wallet: "0xwallet"}
	body := `{"clientProtocol":"xmtp@v2","untrustedData":{"buttonIndex":1}}`
	seen, _ := runClassifier(t, verifier, http.MethodPost, body)

	if seen.client != ClientXMTP {
		t.Errorf("client = %s, want xmtp", seen.client)
	}
	if seen.wallet != "0xwallet" {
		t.Errorf("wallet = %s, want 0xwallet", seen.wallet)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want exactly 1", verifier.calls)
	}
	// Body must be restored for downstream handlers.
	if seen.body != body {
		t.Errorf("downstream body = %q, want original", seen.body)
	}
}

func TestClassifier_XMTPVerificationFailureFailsRequest(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("bad signature")}
	seen, rec := runClassifier(t, verifier, http.MethodPost, `{"clientProtocol":"xmtp"}`)

	if seen.served {
		t.Error("handler must not run after verification failure")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want exactly 1", verifier.calls)
	}
}
