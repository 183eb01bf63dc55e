package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betcore/internal/domain"
)

var coreABI abi.ABI

func init() {
	var err error
	coreABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "getCondition",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "conditionId", "type": "uint256"}],
			"outputs": [{
				"name": "",
				"type": "tuple",
				"components": [
					{"name": "gameId", "type": "uint256"},
					{"name": "payouts", "type": "uint128[]"},
					{"name": "virtualFunds", "type": "uint128[]"},
					{"name": "totalNetBets", "type": "uint128"},
					{"name": "reinforcement", "type": "uint128"},
					{"name": "margin", "type": "uint64"},
					{"name": "endsAt", "type": "uint64"},
					{"name": "lastDepositId", "type": "uint48"},
					{"name": "winningOutcomesCount", "type": "uint8"},
					{"name": "state", "type": "uint8"},
					{"name": "oracle", "type": "address"},
					{"name": "isExpressForbidden", "type": "bool"}
				]
			}]
		}
	]`))
	if err != nil {
		panic("core abi parse: " + err.Error())
	}
}

// conditionResult mirrors the getCondition tuple layout for decoding.
type conditionResult struct {
	GameId               *big.Int
	Payouts              []*big.Int
	VirtualFunds         []*big.Int
	TotalNetBets         *big.Int
	Reinforcement        *big.Int
	Margin               uint64
	EndsAt               uint64
	LastDepositId        *big.Int
	WinningOutcomesCount uint8
	State                uint8
	Oracle               common.Address
	IsExpressForbidden   bool
}

// ConditionReader implements domain.ConditionReader against live betting-core
// contracts. Unlike token reads, condition reads are load-bearing: the
// handler abandons the event when the snapshot cannot be fetched.
type ConditionReader struct {
	client *Client
}

// NewConditionReader creates a ConditionReader on the given client.
func NewConditionReader(client *Client) *ConditionReader {
	return &ConditionReader{client: client}
}

var _ domain.ConditionReader = (*ConditionReader)(nil)

// GetCondition reads the on-chain condition snapshot.
func (r *ConditionReader) GetCondition(ctx context.Context, coreAddress string, conditionID *big.Int) (*domain.ConditionState, error) {
	data, err := coreABI.Pack("getCondition", conditionID)
	if err != nil {
		return nil, fmt.Errorf("chain: pack getCondition: %w", err)
	}

	raw, err := r.client.call(ctx, common.HexToAddress(coreAddress), data)
	if err != nil {
		return nil, fmt.Errorf("chain: getCondition %s on %s: %w", conditionID, coreAddress, err)
	}

	out, err := coreABI.Unpack("getCondition", raw)
	if err != nil || len(out) != 1 {
		return nil, fmt.Errorf("chain: decode getCondition %s: %w", conditionID, err)
	}
	res := abi.ConvertType(out[0], new(conditionResult)).(*conditionResult)

	return &domain.ConditionState{
		Margin:               new(big.Int).SetUint64(res.Margin),
		Reinforcement:        res.Reinforcement,
		VirtualFunds:         res.VirtualFunds,
		WinningOutcomesCount: res.WinningOutcomesCount,
		IsExpressForbidden:   res.IsExpressForbidden,
	}, nil
}
