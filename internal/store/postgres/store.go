package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// Store bundles the per-aggregate stores into the full persistence surface
// the engine runs against.
type Store struct {
	*ConditionStore
	*BetStore
	*GameStore
	*FreebetStore
	*PoolStore
	*CoreContractStore
	*AuditStore
}

var _ domain.EntityStore = (*Store)(nil)

// NewStore creates a Store with every aggregate backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		ConditionStore:    NewConditionStore(pool),
		BetStore:          NewBetStore(pool),
		GameStore:         NewGameStore(pool),
		FreebetStore:      NewFreebetStore(pool),
		PoolStore:         NewPoolStore(pool),
		CoreContractStore: NewCoreContractStore(pool),
		AuditStore:        NewAuditStore(pool),
	}
}
