package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newRPCServer(t *testing.T, handler func(req RPCRequest) (interface{}, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}
		result, rpcErr := handler(req)
		resp := RPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
		if rpcErr == nil {
			raw, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("marshal result: %v", err)
			}
			resp.Result = raw
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestStorageRegistry_UnitPrice(t *testing.T) {
	server := newRPCServer(t, func(req RPCRequest) (interface{}, *RPCError) {
		if req.Method != "eth_call" {
			t.Errorf("method = %s, want eth_call", req.Method)
		}
		call := req.Params[0].(map[string]interface{})
		data := call["data"].(string)
		if !strings.HasPrefix(data, selectorPrice) {
			t.Errorf("calldata %s does not start with price selector", data)
		}
		// price of one unit: 100 wei
		return "0x" + strings.Repeat("0", 62) + "64", nil
	})
	defer server.Close()

	client, err := NewClient(Config{RPCURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	registry := NewStorageRegistry(client, "0x00000000FcCe7f938e7aE6D3c335bD6a4a7c5c60")

	price, err := registry.UnitPrice(context.Background())
	if err != nil {
		t.Fatalf("UnitPrice() error = %v", err)
	}
	if price.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("price = %s, want 100", price)
	}
}

func TestStorageRegistry_UnitPrice_RPCError(t *testing.T) {
	server := newRPCServer(t, func(req RPCRequest) (interface{}, *RPCError) {
		return nil, &RPCError{Code: -32000, Message: "execution reverted"}
	})
	defer server.Close()

	client, _ := NewClient(Config{RPCURL: server.URL})
	registry := NewStorageRegistry(client, "0xabc")

	if _, err := registry.UnitPrice(context.Background()); err == nil {
		t.Error("UnitPrice() should propagate RPC errors")
	}
}

func TestRentCalldata(t *testing.T) {
	data := RentCalldata(123, 1)
	if !strings.HasPrefix(data, selectorRent) {
		t.Fatalf("calldata %s does not start with rent selector", data)
	}
	args := strings.TrimPrefix(data, selectorRent)
	if len(args) != 128 {
		t.Fatalf("args length = %d, want 128", len(args))
	}
	fidWord := args[:64]
	unitsWord := args[64:]
	if fidWord != "000000000000000000000000000000000000000000000000000000000000007b" {
		t.Errorf("fid word = %s", fidWord)
	}
	if unitsWord != "0000000000000000000000000000000000000000000000000000000000000001" {
		t.Errorf("units word = %s", unitsWord)
	}
}

func TestDecodeUint256(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0x0000000000000000000000000000000000000000000000000000000000000064", 100, false},
		{"0x64", 100, false},
		{"", 0, true},
		{"0xzz", 0, true},
	}
	for _, tt := range tests {
		got, err := decodeUint256(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("decodeUint256(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("decodeUint256(%q) error = %v", tt.in, err)
			continue
		}
		if got.Int64() != tt.want {
			t.Errorf("decodeUint256(%q) = %s, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClient_BlockNumber(t *testing.T) {
	server := newRPCServer(t, func(req RPCRequest) (interface{}, *RPCError) {
		if req.Method != "eth_blockNumber" {
			t.Errorf("method = %s, want eth_blockNumber", req.Method)
		}
		return "0x10", nil
	})
	defer server.Close()

	client, _ := NewClient(Config{RPCURL: server.URL})
	height, err := client.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber() error = %v", err)
	}
	if height != 16 {
		t.Errorf("height = %d, want 16", height)
	}
}
