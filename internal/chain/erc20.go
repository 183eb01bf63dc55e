package chain

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betcore/internal/domain"
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "decimals",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "uint8"}]
		},
		{
			"name": "symbol",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "string"}]
		},
		{
			"name": "balanceOf",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "owner", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
}

// defaultDecimals is assumed when a token does not answer decimals().
const defaultDecimals = 18

// TokenReader implements domain.TokenReader against live ERC-20 contracts.
// Failed calls degrade to defaults instead of propagating errors; a broken
// token must never abort event processing.
type TokenReader struct {
	client *Client
	log    *slog.Logger
}

// NewTokenReader creates a TokenReader on the given client.
func NewTokenReader(client *Client, log *slog.Logger) *TokenReader {
	return &TokenReader{client: client, log: log.With("component", "token_reader")}
}

var _ domain.TokenReader = (*TokenReader)(nil)

// Decimals returns the token's decimals, or 18 when the call fails.
func (r *TokenReader) Decimals(ctx context.Context, tokenAddress string) int {
	data, _ := erc20ABI.Pack("decimals")
	raw, err := r.client.call(ctx, common.HexToAddress(tokenAddress), data)
	if err != nil {
		r.log.Warn("decimals call failed", "token", tokenAddress, "error", err)
		return defaultDecimals
	}
	out, err := erc20ABI.Unpack("decimals", raw)
	if err != nil || len(out) != 1 {
		r.log.Warn("decimals decode failed", "token", tokenAddress, "error", err)
		return defaultDecimals
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return defaultDecimals
	}
	return int(dec)
}

// Symbol returns the token's symbol, or "" when the call fails.
func (r *TokenReader) Symbol(ctx context.Context, tokenAddress string) string {
	data, _ := erc20ABI.Pack("symbol")
	raw, err := r.client.call(ctx, common.HexToAddress(tokenAddress), data)
	if err != nil {
		r.log.Warn("symbol call failed", "token", tokenAddress, "error", err)
		return ""
	}
	out, err := erc20ABI.Unpack("symbol", raw)
	if err != nil || len(out) != 1 {
		r.log.Warn("symbol decode failed", "token", tokenAddress, "error", err)
		return ""
	}
	sym, _ := out[0].(string)
	return sym
}

// BalanceOf returns the owner's balance, or zero when the call fails.
func (r *TokenReader) BalanceOf(ctx context.Context, tokenAddress, ownerAddress string) *big.Int {
	data, _ := erc20ABI.Pack("balanceOf", common.HexToAddress(ownerAddress))
	raw, err := r.client.call(ctx, common.HexToAddress(tokenAddress), data)
	if err != nil {
		r.log.Warn("balanceOf call failed", "token", tokenAddress, "error", err)
		return new(big.Int)
	}
	out, err := erc20ABI.Unpack("balanceOf", raw)
	if err != nil || len(out) != 1 {
		r.log.Warn("balanceOf decode failed", "token", tokenAddress, "error", err)
		return new(big.Int)
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return new(big.Int)
	}
	return bal
}
