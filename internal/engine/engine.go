// Package engine derives indexer state from decoded chain events. Handlers
// run strictly sequentially; each one loads the entities it needs, validates
// and computes before its first save where feasible, and abandons the rest of
// the event on a referential or numeric failure. Abandonment is per event,
// never fatal to the process.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/metrics"
)

// SportEntry is one row of the injected sport dictionary.
type SportEntry struct {
	Name string
	Hub  string
}

// Options carries the immutable lookup data the handlers need.
type Options struct {
	ChainID   int
	ChainName string

	// Sports maps decimal sport ids to names and hubs. Unknown ids fall
	// back to a generated name under the "sports" hub.
	Sports map[string]SportEntry
}

// Readers bundles the external read-only collaborators.
type Readers struct {
	Condition domain.ConditionReader
	Token     domain.TokenReader
	Payout    domain.PayoutCalculator
	Metadata  domain.MetadataFetcher
	OddsCache domain.OddsCache // optional
}

// Engine owns all event handlers and the startup registration surface.
type Engine struct {
	store   domain.EntityStore
	readers Readers
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New wires an engine over the given store and collaborators. The metrics
// bundle may be nil.
func New(store domain.EntityStore, readers Readers, opts Options, log *slog.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:   store,
		readers: readers,
		opts:    opts,
		log:     log.With("component", "engine"),
		metrics: m,
	}
}

// core resolves the emitting contract address to its registered core entity.
func (e *Engine) core(ctx context.Context, address string) (*domain.CoreContract, error) {
	c, err := e.store.GetCoreContract(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("engine: core contract %s: %w", address, err)
	}
	return c, nil
}

func (e *Engine) pool(ctx context.Context, id string) (*domain.LiquidityPool, error) {
	p, err := e.store.GetPool(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("engine: liquidity pool %s: %w", id, err)
	}
	return p, nil
}

// audit appends one row to the handled-event log.
func (e *Engine) audit(ctx context.Context, meta domain.EventMeta, name, entityParam, entityValue string) error {
	logIdx := strconv.FormatInt(meta.LogIndex, 10)
	sort := new(big.Int).Mul(big.NewInt(meta.Block.Number), big.NewInt(1_000_000))
	sort.Add(sort, big.NewInt(meta.LogIndex))
	ev := &domain.AuditEvent{
		ID:              domain.AuditEventEntityID(name, meta.TxHash, logIdx),
		Name:            name,
		ContractAddress: meta.ContractAddress,
		TxHash:          meta.TxHash,
		TxIndex:         meta.TxIndex,
		LogIndex:        meta.LogIndex,
		SortOrder:       sort,
		BlockNumber:     meta.Block.Number,
		BlockTimestamp:  meta.Block.Timestamp,
		GasPrice:        meta.GasPrice,
		GasUsed:         meta.GasUsed,
		EntityParam:     entityParam,
		EntityValue:     entityValue,
	}
	if err := e.store.PutAuditEvent(ctx, ev); err != nil {
		return fmt.Errorf("engine: audit %s: %w", name, err)
	}
	return nil
}

// cacheOutcome mirrors the outcome's current odds to the read-side cache.
// Cache failures are logged and otherwise ignored.
func (e *Engine) cacheOutcome(ctx context.Context, o *domain.Outcome) {
	if e.readers.OddsCache == nil {
		return
	}
	if err := e.readers.OddsCache.SetOutcomeOdds(ctx, o); err != nil {
		e.log.Warn("odds cache write failed", "outcome", o.ID, "err", err)
	}
}

func bigString(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}
