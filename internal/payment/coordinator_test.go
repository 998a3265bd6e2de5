package payment

import (
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/frameforge/giftstorage/internal/logging"
)

// fakeProvider is an in-memory Provider with scriptable behavior.
type fakeProvider struct {
	createCalls  int
	lastRequest  CreateSessionRequest
	session      *Session
	unsigned     *UnsignedTransaction
	createErr    error
	lookupCalls  int
	lookupResult *Session
	lookupErr    error
	waitResult   *Session
	waitErr      error
}

func (f *fakeProvider) CreateSession(_ context.Context, req CreateSessionRequest) (*Session, *UnsignedTransaction, error) {
	f.createCalls++
	f.lastRequest = req
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	return f.session, f.unsigned, nil
}

func (f *fakeProvider) SessionByPaymentTransaction(_ context.Context, chainID, txHash string) (*Session, error) {
	f.lookupCalls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.lookupResult, nil
}

func (f *fakeProvider) WaitForSession(_ context.Context, sessionID string) (*Session, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return f.waitResult, nil
}

type fixedOracle struct {
	price *big.Int
	err   error
}

func (o fixedOracle) UnitPrice(context.Context) (*big.Int, error) {
	return o.price, o.err
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter("test", io.Discard)
}

func newTestCoordinator(provider Provider, oracle fixedOracle) *Coordinator {
	return NewCoordinator(provider, oracle, CoordinatorConfig{
		SettlementChainID: "eip155:10",
		RegistryAddress:   "0x00000000fcce7f938e7ae6d3c335bd6a4a7c5c60",
	}, testLogger())
}

func TestCreateIntent_ValueIsPriceTimesQuantity(t *testing.T) {
	provider := &fakeProvider{
		session:  &Session{ID: "sess-1", Status: StatusCreated},
		unsigned: &UnsignedTransaction{ChainID: "eip155:8453", To: "0xpay", Value: "0x64", Data: "0x"},
	}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	unsigned, err := coord.CreateIntent(context.Background(), "0xpayer", 123, 1)
	if err != nil {
		t.Fatalf("CreateIntent() error = %v", err)
	}
	if unsigned == nil {
		t.Fatal("CreateIntent() returned nil transaction")
	}

	// unit price 100, quantity 1 -> hex 0x64
	if provider.lastRequest.Value != "0x64" {
		t.Errorf("request value = %s, want 0x64", provider.lastRequest.Value)
	}
	if provider.lastRequest.To != "0x00000000fcce7f938e7ae6d3c335bd6a4a7c5c60" {
		t.Errorf("request destination = %s", provider.lastRequest.To)
	}
	if provider.lastRequest.ChainID != "eip155:10" {
		t.Errorf("request chain = %s, want eip155:10", provider.lastRequest.ChainID)
	}
	if provider.lastRequest.PaymentCurrency != DefaultPaymentCurrency {
		t.Errorf("payment currency = %s", provider.lastRequest.PaymentCurrency)
	}
	if !strings.HasPrefix(provider.lastRequest.Data, "0x783a112b") {
		t.Errorf("calldata %s is not a rent call", provider.lastRequest.Data)
	}
}

func TestCreateIntent_MultipliesQuantity(t *testing.T) {
	provider := &fakeProvider{
		session:  &Session{ID: "sess-1"},
		unsigned: &UnsignedTransaction{},
	}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(250)})

	if _, err := coord.CreateIntent(context.Background(), "0xpayer", 7, 4); err != nil {
		t.Fatalf("CreateIntent() error = %v", err)
	}
	// 250 * 4 = 1000 = 0x3e8
	if provider.lastRequest.Value != "0x3e8" {
		t.Errorf("request value = %s, want 0x3e8", provider.lastRequest.Value)
	}
}

func TestCreateIntent_RejectsZeroQuantity(t *testing.T) {
	provider := &fakeProvider{}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	if _, err := coord.CreateIntent(context.Background(), "0xpayer", 123, 0); err == nil {
		t.Fatal("CreateIntent() should reject quantity 0")
	}
	if provider.createCalls != 0 {
		t.Error("provider must not be called for rejected quantities")
	}
}

func TestCreateIntent_RejectsEmptyPayer(t *testing.T) {
	coord := newTestCoordinator(&fakeProvider{}, fixedOracle{price: big.NewInt(100)})
	if _, err := coord.CreateIntent(context.Background(), "", 123, 1); err == nil {
		t.Fatal("CreateIntent() should reject empty payer")
	}
}

func TestCreateIntent_OracleFailurePropagates(t *testing.T) {
	provider := &fakeProvider{}
	coord := newTestCoordinator(provider, fixedOracle{err: errors.New("rpc down")})

	if _, err := coord.CreateIntent(context.Background(), "0xpayer", 123, 1); err == nil {
		t.Fatal("CreateIntent() should propagate oracle failure")
	}
	if provider.createCalls != 0 {
		t.Error("provider must not be called when pricing fails")
	}
}

func TestCreateIntent_MissingUnsignedPayloadIsFatal(t *testing.T) {
	provider := &fakeProvider{session: &Session{ID: "sess-1"}, unsigned: nil}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	if _, err := coord.CreateIntent(context.Background(), "0xpayer", 123, 1); err == nil {
		t.Fatal("CreateIntent() must fail without an unsigned transaction")
	}
	if provider.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (no retry)", provider.createCalls)
	}
}

func TestQueryByHash_Idempotent(t *testing.T) {
	provider := &fakeProvider{
		lookupResult: &Session{ID: "sess-1", Status: StatusPending},
	}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	first, err := coord.QueryByHash(context.Background(), "eip155:8453", "0xabc")
	if err != nil {
		t.Fatalf("QueryByHash() error = %v", err)
	}
	second, err := coord.QueryByHash(context.Background(), "eip155:8453", "0xabc")
	if err != nil {
		t.Fatalf("QueryByHash() second call error = %v", err)
	}
	if first.Status != second.Status || first.ID != second.ID {
		t.Errorf("repeated queries differ: %+v vs %+v", first, second)
	}
	if provider.lookupCalls != 2 {
		t.Errorf("lookupCalls = %d, want 2", provider.lookupCalls)
	}
}

func TestQueryByHash_RequiresHash(t *testing.T) {
	coord := newTestCoordinator(&fakeProvider{}, fixedOracle{price: big.NewInt(100)})
	if _, err := coord.QueryByHash(context.Background(), "eip155:8453", ""); err == nil {
		t.Fatal("QueryByHash() should reject empty hash")
	}
}

func TestQueryByHash_NotFoundPassesThrough(t *testing.T) {
	provider := &fakeProvider{lookupErr: ErrSessionNotFound}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	_, err := coord.QueryByHash(context.Background(), "eip155:8453", "0xabc")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestWaitForSettlement(t *testing.T) {
	provider := &fakeProvider{
		waitResult: &Session{ID: "sess-1", Status: StatusSettled, SponsoredTransactionHash: "0x999"},
	}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	session, err := coord.WaitForSettlement(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("WaitForSettlement() error = %v", err)
	}
	if !session.Settled() {
		t.Errorf("session %+v should be settled", session)
	}
}

func TestWaitForSettlement_ProviderTimeoutPropagates(t *testing.T) {
	provider := &fakeProvider{waitErr: errors.New("provider timeout")}
	coord := newTestCoordinator(provider, fixedOracle{price: big.NewInt(100)})

	if _, err := coord.WaitForSettlement(context.Background(), "sess-1"); err == nil {
		t.Fatal("WaitForSettlement() should propagate provider timeout")
	}
}
