package domain

import "context"

// The entity stores expose keyed load/save semantics: Get returns
// ErrNotFound for missing ids, Put upserts and is immediately visible to
// subsequent Gets within the same event's processing. There is no
// cross-entity transaction; handlers validate and compute before their first
// Put wherever feasible.

// ConditionStore persists conditions and their outcomes.
type ConditionStore interface {
	GetCondition(ctx context.Context, id string) (*Condition, error)
	PutCondition(ctx context.Context, c *Condition) error
	GetOutcome(ctx context.Context, id string) (*Outcome, error)
	PutOutcome(ctx context.Context, o *Outcome) error
}

// BetStore persists bets and their selections.
type BetStore interface {
	GetBet(ctx context.Context, id string) (*Bet, error)
	PutBet(ctx context.Context, b *Bet) error
	GetSelection(ctx context.Context, id string) (*Selection, error)
	PutSelection(ctx context.Context, s *Selection) error
}

// GameStore persists games and the league/country hierarchy above them.
type GameStore interface {
	GetGame(ctx context.Context, id string) (*Game, error)
	PutGame(ctx context.Context, g *Game) error
	GetLeague(ctx context.Context, id string) (*League, error)
	PutLeague(ctx context.Context, l *League) error
	GetCountry(ctx context.Context, id string) (*Country, error)
	PutCountry(ctx context.Context, c *Country) error
	GetSport(ctx context.Context, id string) (*Sport, error)
	PutSport(ctx context.Context, s *Sport) error
	GetSportHub(ctx context.Context, id string) (*SportHub, error)
	PutSportHub(ctx context.Context, h *SportHub) error
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	PutParticipant(ctx context.Context, p *Participant) error
}

// FreebetStore persists freebet contracts and grants.
type FreebetStore interface {
	GetFreebetContract(ctx context.Context, id string) (*FreebetContract, error)
	PutFreebetContract(ctx context.Context, c *FreebetContract) error
	GetFreebet(ctx context.Context, id string) (*Freebet, error)
	PutFreebet(ctx context.Context, f *Freebet) error
}

// PoolStore persists liquidity pools, depositor NFTs and the pool ledger.
type PoolStore interface {
	GetPool(ctx context.Context, id string) (*LiquidityPool, error)
	PutPool(ctx context.Context, p *LiquidityPool) error
	GetPoolNFT(ctx context.Context, id string) (*LiquidityPoolNFT, error)
	PutPoolNFT(ctx context.Context, n *LiquidityPoolNFT) error
	PutPoolTransaction(ctx context.Context, t *LiquidityPoolTransaction) error
}

// CoreContractStore persists the core-address → version/pool mapping.
type CoreContractStore interface {
	GetCoreContract(ctx context.Context, id string) (*CoreContract, error)
	PutCoreContract(ctx context.Context, c *CoreContract) error
}

// AuditStore persists the append-only handled-event log.
type AuditStore interface {
	PutAuditEvent(ctx context.Context, e *AuditEvent) error
}

// EntityStore is the full persistence surface the engine runs against.
type EntityStore interface {
	ConditionStore
	BetStore
	GameStore
	FreebetStore
	PoolStore
	CoreContractStore
	AuditStore
}
