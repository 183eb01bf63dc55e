package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// ConditionStore implements domain.ConditionStore using PostgreSQL.
type ConditionStore struct {
	pool *pgxpool.Pool
}

// NewConditionStore creates a ConditionStore backed by the given pool.
func NewConditionStore(pool *pgxpool.Pool) *ConditionStore {
	return &ConditionStore{pool: pool}
}

const conditionColumns = `
	id, core_address, condition_id, game_id, status,
	margin, reinforcement, winning_outcomes_count, is_express_forbidden,
	turnover, provider, outcome_ids, won_outcome_ids, internal_starts_at,
	created_tx_hash, created_block_number, created_block_timestamp,
	resolved_tx_hash, resolved_block_number, resolved_block_timestamp,
	updated_at`

// GetCondition loads one condition by entity id.
func (s *ConditionStore) GetCondition(ctx context.Context, id string) (*domain.Condition, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+conditionColumns+` FROM conditions WHERE id = $1`, id)

	var (
		c                                                  domain.Condition
		condID, margin, reinforcement, turnover, provider  *string
		internalStartsAt                                   *string
		outcomeIDs, wonOutcomeIDs                          []string
	)
	err := row.Scan(
		&c.ID, &c.CoreAddress, &condID, &c.GameID, &c.Status,
		&margin, &reinforcement, &c.WinningOutcomesCount, &c.IsExpressForbidden,
		&turnover, &provider, &outcomeIDs, &wonOutcomeIDs, &internalStartsAt,
		&c.CreatedTxHash, &c.CreatedBlockNumber, &c.CreatedBlockTimestamp,
		&c.ResolvedTxHash, &c.ResolvedBlockNumber, &c.ResolvedBlockTimestamp,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get condition %s: %w", id, err)
	}

	if c.ConditionID, err = parseBig(condID); err != nil {
		return nil, err
	}
	if c.Margin, err = parseBig(margin); err != nil {
		return nil, err
	}
	if c.Reinforcement, err = parseBig(reinforcement); err != nil {
		return nil, err
	}
	if c.Turnover, err = parseBig(turnover); err != nil {
		return nil, err
	}
	if c.Provider, err = parseBig(provider); err != nil {
		return nil, err
	}
	if c.InternalStartsAt, err = parseBig(internalStartsAt); err != nil {
		return nil, err
	}
	if c.OutcomeIDs, err = parseBigs(outcomeIDs); err != nil {
		return nil, err
	}
	if c.WonOutcomeIDs, err = parseBigs(wonOutcomeIDs); err != nil {
		return nil, err
	}
	return &c, nil
}

// PutCondition upserts one condition.
func (s *ConditionStore) PutCondition(ctx context.Context, c *domain.Condition) error {
	const query = `
		INSERT INTO conditions (
			id, core_address, condition_id, game_id, status,
			margin, reinforcement, winning_outcomes_count, is_express_forbidden,
			turnover, provider, outcome_ids, won_outcome_ids, internal_starts_at,
			created_tx_hash, created_block_number, created_block_timestamp,
			resolved_tx_hash, resolved_block_number, resolved_block_timestamp,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20,
			$21
		)
		ON CONFLICT (id) DO UPDATE SET
			status                   = EXCLUDED.status,
			margin                   = EXCLUDED.margin,
			reinforcement            = EXCLUDED.reinforcement,
			winning_outcomes_count   = EXCLUDED.winning_outcomes_count,
			is_express_forbidden     = EXCLUDED.is_express_forbidden,
			turnover                 = EXCLUDED.turnover,
			provider                 = EXCLUDED.provider,
			outcome_ids              = EXCLUDED.outcome_ids,
			won_outcome_ids          = EXCLUDED.won_outcome_ids,
			internal_starts_at       = EXCLUDED.internal_starts_at,
			resolved_tx_hash         = EXCLUDED.resolved_tx_hash,
			resolved_block_number    = EXCLUDED.resolved_block_number,
			resolved_block_timestamp = EXCLUDED.resolved_block_timestamp,
			updated_at               = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		c.ID, c.CoreAddress, bigArg(c.ConditionID), c.GameID, string(c.Status),
		bigArg(c.Margin), bigArg(c.Reinforcement), c.WinningOutcomesCount, c.IsExpressForbidden,
		bigArg(c.Turnover), bigArg(c.Provider), bigsArg(c.OutcomeIDs), bigsArg(c.WonOutcomeIDs), bigArg(c.InternalStartsAt),
		c.CreatedTxHash, c.CreatedBlockNumber, c.CreatedBlockTimestamp,
		c.ResolvedTxHash, c.ResolvedBlockNumber, c.ResolvedBlockTimestamp,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put condition %s: %w", c.ID, err)
	}
	return nil
}

// GetOutcome loads one outcome by entity id.
func (s *ConditionStore) GetOutcome(ctx context.Context, id string) (*domain.Outcome, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, core_address, outcome_id, condition_entity_id, sort_order,
		       fund, raw_current_odds, current_odds, bet_ids, updated_at
		FROM outcomes WHERE id = $1`, id)

	var (
		o                         domain.Outcome
		outcomeID, fund, rawOdds  *string
		currentOdds               *string
	)
	err := row.Scan(
		&o.ID, &o.CoreAddress, &outcomeID, &o.ConditionID, &o.SortOrder,
		&fund, &rawOdds, &currentOdds, &o.BetIDs, &o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get outcome %s: %w", id, err)
	}

	if o.OutcomeID, err = parseBig(outcomeID); err != nil {
		return nil, err
	}
	if o.Fund, err = parseBig(fund); err != nil {
		return nil, err
	}
	if o.RawCurrentOdds, err = parseBig(rawOdds); err != nil {
		return nil, err
	}
	if o.CurrentOdds, err = parseDec(currentOdds); err != nil {
		return nil, err
	}
	return &o, nil
}

// PutOutcome upserts one outcome.
func (s *ConditionStore) PutOutcome(ctx context.Context, o *domain.Outcome) error {
	const query = `
		INSERT INTO outcomes (
			id, core_address, outcome_id, condition_entity_id, sort_order,
			fund, raw_current_odds, current_odds, bet_ids, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			fund             = EXCLUDED.fund,
			raw_current_odds = EXCLUDED.raw_current_odds,
			current_odds     = EXCLUDED.current_odds,
			bet_ids          = EXCLUDED.bet_ids,
			updated_at       = EXCLUDED.updated_at`

	betIDs := o.BetIDs
	if betIDs == nil {
		betIDs = []string{}
	}
	_, err := s.pool.Exec(ctx, query,
		o.ID, o.CoreAddress, bigArg(o.OutcomeID), o.ConditionID, o.SortOrder,
		bigArg(o.Fund), bigArg(o.RawCurrentOdds), decArg(o.CurrentOdds), betIDs, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put outcome %s: %w", o.ID, err)
	}
	return nil
}
