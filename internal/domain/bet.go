package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BetType distinguishes single-leg from multi-leg slips.
type BetType string

const (
	BetTypeOrdinar BetType = "Ordinar"
	BetTypeExpress BetType = "Express"
)

// BetStatus is the lifecycle state of a bet.
type BetStatus string

const (
	BetStatusAccepted BetStatus = "Accepted"
	BetStatusResolved BetStatus = "Resolved"
	BetStatusCanceled BetStatus = "Canceled"
)

// BetResult is set once a bet fully resolves.
type BetResult string

const (
	BetResultWon  BetResult = "Won"
	BetResultLost BetResult = "Lost"
)

// SelectionResult is set exactly once when the selection's condition
// resolves; it stays empty when the condition is canceled.
type SelectionResult string

const (
	SelectionResultWon  SelectionResult = "Won"
	SelectionResultLost SelectionResult = "Lost"
)

// Bet is one wagered slip across one (ordinar) or several (express)
// conditions. Leg counters advance as conditions resolve; the whole bet
// finalizes exactly once, when the counters reach SubBetsCount.
type Bet struct {
	ID          string
	Type        BetType
	BetID       *big.Int
	CoreAddress string

	// Bettor placed the stake; Owner holds the bet NFT; Actor is the address
	// entitled to redeem. Actor differs from Owner only for freebet-funded
	// bets, where it tracks the freebet owner instead.
	Bettor    string
	Owner     string
	Actor     string
	Affiliate string

	RawAmount     *big.Int
	Amount        decimal.Decimal
	TokenDecimals int

	RawOdds      *big.Int
	Odds         decimal.Decimal
	OddsDecimals int

	RawPotentialPayout *big.Int
	PotentialPayout    decimal.Decimal

	// RawPayout is nil until the bet finalizes or is redeemed.
	RawPayout *big.Int
	Payout    decimal.Decimal

	// RawSettledOdds is the payout-to-stake ratio actually realized.
	RawSettledOdds *big.Int
	SettledOdds    decimal.Decimal

	SubBetsCount         int
	WonSubBetsCount      int
	LostSubBetsCount     int
	CanceledSubBetsCount int

	ConditionEntityIDs []string
	GameEntityIDs      []string
	ConditionIDs       []*big.Int

	Status BetStatus
	Result BetResult // empty until resolved

	IsRedeemed   bool
	IsRedeemable bool
	IsFreebet    bool
	FreebetID    string // empty unless freebet-funded

	ApproxSettledAt int64

	CreatedTxHash         string
	CreatedBlockNumber    int64
	CreatedBlockTimestamp int64

	ResolvedTxHash         string
	ResolvedBlockNumber    int64
	ResolvedBlockTimestamp int64

	RedeemedTxHash         string
	RedeemedBlockNumber    int64
	RedeemedBlockTimestamp int64

	UpdatedAt int64
}

// Selection is one leg of a bet, pinned to one outcome at acceptance odds.
type Selection struct {
	ID              string
	BetID           string
	OutcomeEntityID string
	OutcomeID       *big.Int

	RawOdds      *big.Int
	Odds         decimal.Decimal
	OddsDecimals int

	Result SelectionResult // empty while pending
}
