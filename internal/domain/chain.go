package domain

import (
	"context"
	"math/big"
)

// ConditionState is the on-chain condition snapshot read back from the core
// contract when a condition is created or its odds change.
type ConditionState struct {
	Margin               *big.Int
	Reinforcement        *big.Int
	VirtualFunds         []*big.Int
	WinningOutcomesCount uint8
	IsExpressForbidden   bool
}

// ConditionReader reads condition state from a betting-core contract.
type ConditionReader interface {
	GetCondition(ctx context.Context, coreAddress string, conditionID *big.Int) (*ConditionState, error)
}

// TokenReader reads ERC-20 metadata and balances. Implementations degrade to
// documented defaults (18 decimals, empty symbol, zero balance) instead of
// returning errors; a reverting token must never abort event processing.
type TokenReader interface {
	Decimals(ctx context.Context, tokenAddress string) int
	Symbol(ctx context.Context, tokenAddress string) string
	BalanceOf(ctx context.Context, tokenAddress, ownerAddress string) *big.Int
}

// PayoutCalculator recomputes the payout of a multi-leg bet on the express
// core contract. The bool is false when the call reverts; callers settle the
// bet with a zero payout in that case.
type PayoutCalculator interface {
	CalcPayout(ctx context.Context, coreAddress string, betID *big.Int) (*big.Int, bool)
}

// GameMetadata is the off-chain game descriptor resolved from the
// content-addressed store.
type GameMetadata struct {
	SportID      *big.Int
	CountryName  string
	LeagueName   string
	Provider     *big.Int
	GameID       *big.Int // only present in V1-era descriptors
	Participants []GameMetadataParticipant
}

// GameMetadataParticipant is one participant entry of a game descriptor.
type GameMetadataParticipant struct {
	Name  string
	Image string
}

// MetadataFetcher resolves a content hash into a parsed game descriptor.
type MetadataFetcher interface {
	FetchGame(ctx context.Context, hash string) (*GameMetadata, error)
}

// OddsCache mirrors current outcome odds for read-side consumers.
type OddsCache interface {
	SetOutcomeOdds(ctx context.Context, o *Outcome) error
	InvalidateCondition(ctx context.Context, conditionEntityID string) error
}
