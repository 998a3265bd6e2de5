package chain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Storage registry function selectors.
//
//	price(uint256 units)      -> unit price in wei for the given unit count
//	rent(uint256 fid, uint256 units) -> payable rental entry point
const (
	selectorPrice = "0x26a49e37"
	selectorRent  = "0x783a112b"
)

// PriceOracle reports the current price of storage units in wei.
type PriceOracle interface {
	UnitPrice(ctx context.Context) (*big.Int, error)
}

// StorageRegistry is the on-chain contract that prices and rents storage
// units. It satisfies PriceOracle via eth_call; it never submits writes.
type StorageRegistry struct {
	client  *Client
	address string
}

// NewStorageRegistry creates a registry bound to the given contract address.
func NewStorageRegistry(client *Client, address string) *StorageRegistry {
	return &StorageRegistry{client: client, address: strings.ToLower(address)}
}

// Address returns the registry contract address.
func (r *StorageRegistry) Address() string { return r.address }

// UnitPrice returns the current price of a single storage unit in wei.
func (r *StorageRegistry) UnitPrice(ctx context.Context) (*big.Int, error) {
	data := selectorPrice + encodeUint256(big.NewInt(1))
	out, err := r.client.EthCall(ctx, r.address, data)
	if err != nil {
		return nil, fmt.Errorf("price call: %w", err)
	}
	price, err := decodeUint256(out)
	if err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	return price, nil
}

// RentCalldata encodes the calldata for renting units storage units for fid.
func RentCalldata(fid uint64, units uint64) string {
	return selectorRent +
		encodeUint256(new(big.Int).SetUint64(fid)) +
		encodeUint256(new(big.Int).SetUint64(units))
}

// =============================================================================
// ABI helpers
// =============================================================================

// encodeUint256 encodes v as a 32-byte big-endian hex word without prefix.
func encodeUint256(v *big.Int) string {
	return fmt.Sprintf("%064x", v)
}

// decodeUint256 decodes a single 32-byte return word.
func decodeUint256(hexData string) (*big.Int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hexData), "0x")
	if s == "" {
		return nil, fmt.Errorf("empty return data")
	}
	if len(s) > 64 {
		s = s[:64]
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex word: %q", hexData)
	}
	return v, nil
}

// parseHexUint parses a 0x-prefixed hex quantity.
func parseHexUint(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}
