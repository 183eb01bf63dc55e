package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// AuditStore implements domain.AuditStore using PostgreSQL. The handled-event
// log is append-only; replays of the same event id are ignored.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// PutAuditEvent appends one handled-event row.
func (s *AuditStore) PutAuditEvent(ctx context.Context, e *domain.AuditEvent) error {
	const query = `
		INSERT INTO audit_events (
			id, name, contract_address, tx_hash, tx_index, log_index,
			sort_order, block_number, block_timestamp,
			gas_price, gas_used, entity_param, entity_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Name, e.ContractAddress, e.TxHash, e.TxIndex, e.LogIndex,
		bigArg(e.SortOrder), e.BlockNumber, e.BlockTimestamp,
		bigArg(e.GasPrice), bigArg(e.GasUsed), e.EntityParam, e.EntityValue,
	)
	if err != nil {
		return fmt.Errorf("postgres: put audit event %s: %w", e.ID, err)
	}
	return nil
}

// ListAuditEvents returns handled events for one block range in handling
// order, for operational inspection.
func (s *AuditStore) ListAuditEvents(ctx context.Context, fromBlock, toBlock int64, limit int) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, name, contract_address, tx_hash, tx_index, log_index,
		       sort_order, block_number, block_timestamp,
		       gas_price, gas_used, entity_param, entity_value
		FROM audit_events
		WHERE block_number >= $1 AND block_number <= $2
		ORDER BY block_number, log_index`
	args := []any{fromBlock, toBlock}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit events: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			e                          domain.AuditEvent
			sortOrder, gasPrice, gasUsed *string
		)
		if err := rows.Scan(
			&e.ID, &e.Name, &e.ContractAddress, &e.TxHash, &e.TxIndex, &e.LogIndex,
			&sortOrder, &e.BlockNumber, &e.BlockTimestamp,
			&gasPrice, &gasUsed, &e.EntityParam, &e.EntityValue,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan audit event: %w", err)
		}
		if e.SortOrder, err = parseBig(sortOrder); err != nil {
			return nil, err
		}
		if e.GasPrice, err = parseBig(gasPrice); err != nil {
			return nil, err
		}
		if e.GasUsed, err = parseBig(gasUsed); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list audit events rows: %w", err)
	}
	return out, nil
}
