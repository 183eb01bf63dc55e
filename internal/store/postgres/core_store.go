package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// CoreContractStore implements domain.CoreContractStore using PostgreSQL.
type CoreContractStore struct {
	pool *pgxpool.Pool
}

// NewCoreContractStore creates a CoreContractStore backed by the given pool.
func NewCoreContractStore(pool *pgxpool.Pool) *CoreContractStore {
	return &CoreContractStore{pool: pool}
}

// GetCoreContract loads one core contract by entity id.
func (s *CoreContractStore) GetCoreContract(ctx context.Context, id string) (*domain.CoreContract, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, address, version, type, liquidity_pool_id, prematch_address
		FROM core_contracts WHERE id = $1`, id)

	var c domain.CoreContract
	err := row.Scan(&c.ID, &c.Address, &c.Version, &c.Type, &c.LiquidityPoolID, &c.PrematchAddress)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get core contract %s: %w", id, err)
	}
	return &c, nil
}

// PutCoreContract upserts one core contract.
func (s *CoreContractStore) PutCoreContract(ctx context.Context, c *domain.CoreContract) error {
	const query = `
		INSERT INTO core_contracts (id, address, version, type, liquidity_pool_id, prematch_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			version          = EXCLUDED.version,
			type             = EXCLUDED.type,
			prematch_address = EXCLUDED.prematch_address`

	_, err := s.pool.Exec(ctx, query,
		c.ID, c.Address, string(c.Version), c.Type, c.LiquidityPoolID, c.PrematchAddress)
	if err != nil {
		return fmt.Errorf("postgres: put core contract %s: %w", c.ID, err)
	}
	return nil
}
