// Package payment coordinates off-chain payment sessions that settle
// on-chain. Sessions are owned by the external coordinator service; this
// package only creates and queries them.
package payment

import (
	"context"
	"errors"
)

// SessionStatus is the lifecycle state reported by the coordinator.
type SessionStatus string

const (
	StatusCreated SessionStatus = "created"
	StatusPending SessionStatus = "pending"
	StatusSettled SessionStatus = "settled"
)

// ErrSessionNotFound reports an unknown payment transaction hash. During
// finality lag this is a normal transient state, not a failure.
var ErrSessionNotFound = errors.New("payment: session not found")

// Session is the coordinator's descriptor for one payment intent.
type Session struct {
	ID                       string        `json:"sessionId"`
	Status                   SessionStatus `json:"status"`
	PaymentChainID           string        `json:"paymentChainId,omitempty"`
	PaymentTransactionHash   string        `json:"paymentTransactionHash,omitempty"`
	SponsoredTransactionHash string        `json:"sponsoredTransactionHash,omitempty"`
}

// Settled reports whether the session reached on-chain finality.
func (s *Session) Settled() bool {
	return s.Status == StatusSettled && s.SponsoredTransactionHash != ""
}

// UnsignedTransaction is the chain-specific payload the user's wallet signs.
type UnsignedTransaction struct {
	ChainID string `json:"chainId"`
	To      string `json:"to"`
	Value   string `json:"value"`
	Data    string `json:"data"`
}

// CreateSessionRequest describes the settlement-side action to be paid for.
type CreateSessionRequest struct {
	ProjectID       string `json:"projectId"`
	ChainID         string `json:"chainId"` // settlement chain
	Account         string `json:"account"` // payer wallet
	PaymentCurrency string `json:"paymentCurrency"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Data            string `json:"data"`
}

// Provider is the external coordinator API boundary.
type Provider interface {
	// CreateSession mints a new payment session and the unsigned payment
	// transaction the payer must sign.
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, *UnsignedTransaction, error)

	// SessionByPaymentTransaction looks up a session by the payer's submitted
	// transaction hash. Read-only and idempotent; returns ErrSessionNotFound
	// for unknown hashes.
	SessionByPaymentTransaction(ctx context.Context, chainID, txHash string) (*Session, error)

	// WaitForSession blocks until the session settles or the provider's own
	// timeout elapses, whichever comes first.
	WaitForSession(ctx context.Context, sessionID string) (*Session, error)
}
