package payment

import (
	"context"
	"fmt"
	"math/big"

	"github.com/frameforge/giftstorage/internal/chain"
	svcerrors "github.com/frameforge/giftstorage/internal/errors"
	"github.com/frameforge/giftstorage/internal/logging"
	"github.com/frameforge/giftstorage/internal/metrics"
)

// USDC on Base, the single accepted payer currency. Intents are created
// against the settlement chain only; this narrowing is deliberate.
const DefaultPaymentCurrency = "eip155:8453/erc20:0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"

// CoordinatorConfig fixes the chain pairing for all intents.
type CoordinatorConfig struct {
	SettlementChainID string
	PaymentCurrency   string
	RegistryAddress   string
}

// Coordinator creates unsigned payment intents for storage rentals and
// reconciles submitted transaction hashes against session completion.
// It holds no session state of its own.
type Coordinator struct {
	provider Provider
	oracle   chain.PriceOracle
	cfg      CoordinatorConfig
	log      *logging.Logger
}

// NewCoordinator wires the provider and pricing oracle together.
func NewCoordinator(provider Provider, oracle chain.PriceOracle, cfg CoordinatorConfig, log *logging.Logger) *Coordinator {
	if cfg.PaymentCurrency == "" {
		cfg.PaymentCurrency = DefaultPaymentCurrency
	}
	return &Coordinator{provider: provider, oracle: oracle, cfg: cfg, log: log}
}

// CreateIntent prices a rental of units storage units for fid and asks the
// provider to mint an unsigned transaction for payer. Provider failures
// propagate; there is no retry at this layer.
func (c *Coordinator) CreateIntent(ctx context.Context, payer string, fid uint64, units uint64) (*UnsignedTransaction, error) {
	if payer == "" {
		return nil, svcerrors.BadRequest("payer address required")
	}
	if units < 1 {
		return nil, svcerrors.BadRequest("quantity must be at least 1")
	}

	unitPrice, err := c.oracle.UnitPrice(ctx)
	if err != nil {
		metrics.CountPaymentIntent("error")
		return nil, svcerrors.Upstream("pricing oracle query failed", err)
	}

	total := new(big.Int).Mul(unitPrice, new(big.Int).SetUint64(units))

	req := CreateSessionRequest{
		ChainID:         c.cfg.SettlementChainID,
		Account:         payer,
		PaymentCurrency: c.cfg.PaymentCurrency,
		To:              c.cfg.RegistryAddress,
		Value:           "0x" + total.Text(16),
		Data:            chain.RentCalldata(fid, units),
	}

	session, unsigned, err := c.provider.CreateSession(ctx, req)
	if err != nil {
		metrics.CountPaymentIntent("error")
		return nil, svcerrors.Upstream("create payment session failed", err)
	}
	if unsigned == nil {
		// No safe default exists without a payload to sign.
		metrics.CountPaymentIntent("error")
		return nil, svcerrors.Upstream("coordinator returned no unsigned transaction", nil)
	}

	metrics.CountPaymentIntent("ok")
	c.log.WithContext(ctx).WithFields(map[string]interface{}{
		"session_id": session.ID,
		"fid":        fid,
		"units":      units,
		"value":      req.Value,
	}).Info("payment intent created")

	return unsigned, nil
}

// QueryByHash looks up the session for a submitted payment transaction.
// Read-only and safe to call repeatedly.
func (c *Coordinator) QueryByHash(ctx context.Context, chainID, txHash string) (*Session, error) {
	if txHash == "" {
		return nil, svcerrors.BadRequest("transaction hash required")
	}
	return c.provider.SessionByPaymentTransaction(ctx, chainID, txHash)
}

// WaitForSettlement delegates to the provider's bounded wait. Retrying a
// timed-out wait is the caller's decision, not this layer's.
func (c *Coordinator) WaitForSettlement(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, svcerrors.BadRequest("session id required")
	}
	session, err := c.provider.WaitForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("wait for settlement: %w", err)
	}
	return session, nil
}
