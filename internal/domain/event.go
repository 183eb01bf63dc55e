package domain

import "math/big"

// ZeroAddress is the hex form of the zero address; NFT transfers from or to
// it are mints and burns.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// BlockRef locates an event in the chain.
type BlockRef struct {
	Number    int64
	Timestamp int64
}

// EventMeta is common wire metadata carried by every decoded event.
type EventMeta struct {
	ContractAddress string
	TxHash          string
	TxIndex         int64
	LogIndex        int64
	Block           BlockRef
	GasPrice        *big.Int
	GasUsed         *big.Int
}

// Decoded core events. Decoding from raw logs happens in the pipeline; the
// engine only ever sees these typed records, in source order.

type ConditionCreatedEvent struct {
	Meta        EventMeta
	ConditionID *big.Int
	GameID      *big.Int
	OutcomeIDs  []*big.Int
	StartsAt    int64 // 0 when the core does not report a per-condition start
}

type OddsChangedEvent struct {
	Meta        EventMeta
	ConditionID *big.Int
}

type MarginChangedEvent struct {
	Meta        EventMeta
	ConditionID *big.Int
	NewMargin   *big.Int
}

type ReinforcementChangedEvent struct {
	Meta             EventMeta
	ConditionID      *big.Int
	NewReinforcement *big.Int
}

type ConditionStoppedEvent struct {
	Meta        EventMeta
	ConditionID *big.Int
	Flag        bool // true pauses, false unpauses
}

type ConditionResolvedEvent struct {
	Meta            EventMeta
	ConditionID     *big.Int
	WinningOutcomes []*big.Int // empty or {0} means the market is canceled
}

// NewBetEvent is an ordinar bet on a single condition. Funds, when present,
// are the post-stake virtual funds used to refresh sibling odds.
type NewBetEvent struct {
	Meta        EventMeta
	ConditionID *big.Int
	OutcomeID   *big.Int
	TokenID     *big.Int
	Bettor      string
	Affiliate   string
	Odds        *big.Int
	Amount      *big.Int
	Funds       []*big.Int
}

// SubBet is one leg of an express bet as reported by the express core.
type SubBet struct {
	ConditionID *big.Int
	OutcomeID   *big.Int
	Odds        *big.Int
}

type NewExpressBetEvent struct {
	Meta      EventMeta
	BetID     *big.Int
	SubBets   []SubBet
	Odds      *big.Int
	Amount    *big.Int
	Bettor    string
	Affiliate string
}

type BettorWinEvent struct {
	Meta    EventMeta
	TokenID *big.Int
	Amount  *big.Int
}

// BetTransferEvent is the bet NFT Transfer. Exactly one of CoreAddress or
// BetTokenAddress is set, depending on which contract emitted it.
type BetTransferEvent struct {
	Meta            EventMeta
	TokenID         *big.Int
	From            string
	To              string
	CoreAddress     string
	BetTokenAddress string
}

type GameCreatedEvent struct {
	Meta         EventMeta
	GameID       *big.Int
	MetadataHash string // content hash of the off-chain game descriptor
	StartsAt     int64
}

type GameShiftedEvent struct {
	Meta     EventMeta
	GameID   *big.Int
	StartsAt int64
}

type GameCanceledEvent struct {
	Meta   EventMeta
	GameID *big.Int
}

// Freebet lifecycle events.

type FreebetMintedEvent struct {
	Meta         EventMeta
	FreebetID    *big.Int
	Owner        string
	Amount       *big.Int
	MinOdds      *big.Int
	DurationTime int64
}

type FreebetReissuedEvent struct {
	Meta      EventMeta
	FreebetID *big.Int
}

type FreebetRedeemedEvent struct {
	Meta        EventMeta
	FreebetID   *big.Int
	CoreAddress string
	BetID       *big.Int
}

type FreebetWithdrawnEvent struct {
	Meta      EventMeta
	FreebetID *big.Int
}

type FreebetTransferEvent struct {
	Meta      EventMeta
	FreebetID *big.Int
	From      string
	To        string
}

type FreebetResolvedEvent struct {
	Meta      EventMeta
	FreebetID *big.Int
	Burned    bool
}

// Liquidity pool lifecycle events.

type LiquidityDepositedEvent struct {
	Meta    EventMeta
	Leaf    *big.Int
	Account string
	Amount  *big.Int
}

type LiquidityWithdrawnEvent struct {
	Meta             EventMeta
	Leaf             *big.Int
	Account          string
	Amount           *big.Int
	IsFullyWithdrawn bool
}

type LiquidityTransferEvent struct {
	Meta EventMeta
	Leaf *big.Int
	To   string
}

type WithdrawTimeoutChangedEvent struct {
	Meta       EventMeta
	NewTimeout int64
}

// AuditEvent is the append-only record written for every handled event.
type AuditEvent struct {
	ID              string
	Name            string
	ContractAddress string
	TxHash          string
	TxIndex         int64
	LogIndex        int64
	SortOrder       *big.Int
	BlockNumber     int64
	BlockTimestamp  int64
	GasPrice        *big.Int
	GasUsed         *big.Int
	EntityParam     string
	EntityValue     string
}
