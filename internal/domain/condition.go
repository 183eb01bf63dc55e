package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ConditionStatus is the lifecycle state of a wagering market.
type ConditionStatus string

const (
	ConditionStatusCreated  ConditionStatus = "Created"
	ConditionStatusPaused   ConditionStatus = "Paused"
	ConditionStatusResolved ConditionStatus = "Resolved"
	ConditionStatusCanceled ConditionStatus = "Canceled"
)

// Condition is a single wagering proposition ("market") with N outcomes,
// belonging to one Game. Turnover only grows while the condition is live and
// is subtracted from the ancestor aggregates exactly once, at resolution.
type Condition struct {
	ID          string
	CoreAddress string
	ConditionID *big.Int

	GameID string // owning Game entity id

	Status               ConditionStatus
	Margin               *big.Int
	Reinforcement        *big.Int
	WinningOutcomesCount uint8
	IsExpressForbidden   bool
	Turnover             *big.Int
	Provider             *big.Int

	// OutcomeIDs is the ordered list of protocol outcome ids for this
	// condition; outcome entities are addressed through it.
	OutcomeIDs []*big.Int

	// WonOutcomeIDs is nil until the condition resolves with winners.
	WonOutcomeIDs []*big.Int

	// InternalStartsAt is set only when the source contract reports a
	// per-condition start time distinct from the game's.
	InternalStartsAt *big.Int

	CreatedTxHash         string
	CreatedBlockNumber    int64
	CreatedBlockTimestamp int64

	ResolvedTxHash         string
	ResolvedBlockNumber    int64
	ResolvedBlockTimestamp int64

	UpdatedAt int64
}

// Outcome is one selectable result of a Condition with its own pooled fund.
// BetIDs is the back-reference list of bets whose selection chose this
// outcome; the settlement cascade walks it on resolution.
type Outcome struct {
	ID          string
	CoreAddress string
	OutcomeID   *big.Int
	ConditionID string // owning Condition entity id
	SortOrder   int

	Fund           *big.Int
	RawCurrentOdds *big.Int
	CurrentOdds    decimal.Decimal

	BetIDs []string

	UpdatedAt int64
}
