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

var expressABI abi.ABI

func init() {
	var err error
	expressABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "calcPayout",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "betId", "type": "uint256"}],
			"outputs": [{"name": "", "type": "uint128"}]
		}
	]`))
	if err != nil {
		panic("express abi parse: " + err.Error())
	}
}

// PayoutCalculator implements domain.PayoutCalculator against express core
// contracts. calcPayout reverts when any leg lost; the false return lets the
// settlement path record a zero payout instead of failing.
type PayoutCalculator struct {
	client *Client
	log    *slog.Logger
}

// NewPayoutCalculator creates a PayoutCalculator on the given client.
func NewPayoutCalculator(client *Client, log *slog.Logger) *PayoutCalculator {
	return &PayoutCalculator{client: client, log: log.With("component", "payout_calculator")}
}

var _ domain.PayoutCalculator = (*PayoutCalculator)(nil)

// CalcPayout recomputes the realized payout of one express bet.
func (p *PayoutCalculator) CalcPayout(ctx context.Context, coreAddress string, betID *big.Int) (*big.Int, bool) {
	data, err := expressABI.Pack("calcPayout", betID)
	if err != nil {
		p.log.Warn("calcPayout pack failed", "bet", betID, "error", err)
		return nil, false
	}

	raw, err := p.client.call(ctx, common.HexToAddress(coreAddress), data)
	if err != nil {
		// Reverts are the expected signal for lost expresses.
		return nil, false
	}

	out, err := expressABI.Unpack("calcPayout", raw)
	if err != nil || len(out) != 1 {
		p.log.Warn("calcPayout decode failed", "bet", betID, "error", err)
		return nil, false
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, false
	}
	return amount, true
}
