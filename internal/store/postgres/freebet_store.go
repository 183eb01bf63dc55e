package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// FreebetStore implements domain.FreebetStore using PostgreSQL.
type FreebetStore struct {
	pool *pgxpool.Pool
}

// NewFreebetStore creates a FreebetStore backed by the given pool.
func NewFreebetStore(pool *pgxpool.Pool) *FreebetStore {
	return &FreebetStore{pool: pool}
}

// GetFreebetContract loads one freebet contract by entity id.
func (s *FreebetStore) GetFreebetContract(ctx context.Context, id string) (*domain.FreebetContract, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, address, liquidity_pool_id, name, affiliate, manager
		FROM freebet_contracts WHERE id = $1`, id)

	var c domain.FreebetContract
	err := row.Scan(&c.ID, &c.Address, &c.LiquidityPoolID, &c.Name, &c.Affiliate, &c.Manager)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get freebet contract %s: %w", id, err)
	}
	return &c, nil
}

// PutFreebetContract upserts one freebet contract.
func (s *FreebetStore) PutFreebetContract(ctx context.Context, c *domain.FreebetContract) error {
	const query = `
		INSERT INTO freebet_contracts (id, address, liquidity_pool_id, name, affiliate, manager)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name      = EXCLUDED.name,
			affiliate = EXCLUDED.affiliate,
			manager   = EXCLUDED.manager`

	_, err := s.pool.Exec(ctx, query, c.ID, c.Address, c.LiquidityPoolID, c.Name, c.Affiliate, c.Manager)
	if err != nil {
		return fmt.Errorf("postgres: put freebet contract %s: %w", c.ID, err)
	}
	return nil
}

const freebetColumns = `
	id, freebet_id, contract_id, contract_address, contract_name, contract_affiliate,
	owner, raw_amount, amount, token_decimals, raw_min_odds, min_odds,
	duration_time, expires_at, status, core_address, bet_id,
	burned, is_resolved,
	created_tx_hash, created_block_number, created_block_timestamp,
	updated_at`

// GetFreebet loads one freebet grant by entity id.
func (s *FreebetStore) GetFreebet(ctx context.Context, id string) (*domain.Freebet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+freebetColumns+` FROM freebets WHERE id = $1`, id)

	var (
		f domain.Freebet

		freebetID, rawAmount, rawMinOdds, betID *string
		amount, minOdds                         *string
	)
	err := row.Scan(
		&f.ID, &freebetID, &f.ContractID, &f.ContractAddress, &f.ContractName, &f.ContractAffiliate,
		&f.Owner, &rawAmount, &amount, &f.TokenDecimals, &rawMinOdds, &minOdds,
		&f.DurationTime, &f.ExpiresAt, &f.Status, &f.CoreAddress, &betID,
		&f.Burned, &f.IsResolved,
		&f.CreatedTxHash, &f.CreatedBlockNumber, &f.CreatedBlockTimestamp,
		&f.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get freebet %s: %w", id, err)
	}

	if f.FreebetID, err = parseBig(freebetID); err != nil {
		return nil, err
	}
	if f.RawAmount, err = parseBig(rawAmount); err != nil {
		return nil, err
	}
	if f.RawMinOdds, err = parseBig(rawMinOdds); err != nil {
		return nil, err
	}
	if f.BetID, err = parseBig(betID); err != nil {
		return nil, err
	}
	if f.Amount, err = parseDec(amount); err != nil {
		return nil, err
	}
	if f.MinOdds, err = parseDec(minOdds); err != nil {
		return nil, err
	}
	return &f, nil
}

// PutFreebet upserts one freebet grant.
func (s *FreebetStore) PutFreebet(ctx context.Context, f *domain.Freebet) error {
	const query = `
		INSERT INTO freebets (
			id, freebet_id, contract_id, contract_address, contract_name, contract_affiliate,
			owner, raw_amount, amount, token_decimals, raw_min_odds, min_odds,
			duration_time, expires_at, status, core_address, bet_id,
			burned, is_resolved,
			created_tx_hash, created_block_number, created_block_timestamp,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19,
			$20, $21, $22,
			$23
		)
		ON CONFLICT (id) DO UPDATE SET
			owner        = EXCLUDED.owner,
			expires_at   = EXCLUDED.expires_at,
			status       = EXCLUDED.status,
			core_address = EXCLUDED.core_address,
			bet_id       = EXCLUDED.bet_id,
			burned       = EXCLUDED.burned,
			is_resolved  = EXCLUDED.is_resolved,
			updated_at   = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		f.ID, bigArg(f.FreebetID), f.ContractID, f.ContractAddress, f.ContractName, f.ContractAffiliate,
		f.Owner, bigArg(f.RawAmount), decArg(f.Amount), f.TokenDecimals, bigArg(f.RawMinOdds), decArg(f.MinOdds),
		f.DurationTime, f.ExpiresAt, string(f.Status), f.CoreAddress, bigArg(f.BetID),
		f.Burned, f.IsResolved,
		f.CreatedTxHash, f.CreatedBlockNumber, f.CreatedBlockTimestamp,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put freebet %s: %w", f.ID, err)
	}
	return nil
}
