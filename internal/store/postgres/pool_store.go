package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// PoolStore implements domain.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *pgxpool.Pool
}

// NewPoolStore creates a PoolStore backed by the given pool.
func NewPoolStore(pool *pgxpool.Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

const poolColumns = `
	id, address, core_addresses, version, chain_id, chain_name,
	token_address, token_decimals, asset,
	bets_amount, bets_count, won_bets_amount, won_bets_count,
	deposited_amount, withdrawn_amount,
	deposited_with_staking_amount, withdrawn_with_staking_amount,
	liquidity_manager,
	raw_apr, apr, raw_tvl, tvl,
	withdraw_timeout, days_since_deployment,
	first_calculated_block_number, first_calculated_block_timestamp,
	last_calculated_block_number, last_calculated_block_timestamp`

// GetPool loads one liquidity pool by entity id.
func (s *PoolStore) GetPool(ctx context.Context, id string) (*domain.LiquidityPool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+poolColumns+` FROM liquidity_pools WHERE id = $1`, id)

	var (
		p domain.LiquidityPool

		betsAmount, wonBetsAmount            *string
		deposited, withdrawn                 *string
		depositedStaking, withdrawnStaking   *string
		rawAPR, apr, rawTVL, tvl             *string
	)
	err := row.Scan(
		&p.ID, &p.Address, &p.CoreAddresses, &p.Version, &p.ChainID, &p.ChainName,
		&p.TokenAddress, &p.TokenDecimals, &p.Asset,
		&betsAmount, &p.BetsCount, &wonBetsAmount, &p.WonBetsCount,
		&deposited, &withdrawn,
		&depositedStaking, &withdrawnStaking,
		&p.LiquidityManager,
		&rawAPR, &apr, &rawTVL, &tvl,
		&p.WithdrawTimeout, &p.DaysSinceDeployment,
		&p.FirstCalculatedBlockNumber, &p.FirstCalculatedBlockTimestamp,
		&p.LastCalculatedBlockNumber, &p.LastCalculatedBlockTimestamp,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get pool %s: %w", id, err)
	}

	if p.BetsAmount, err = parseBig(betsAmount); err != nil {
		return nil, err
	}
	if p.WonBetsAmount, err = parseBig(wonBetsAmount); err != nil {
		return nil, err
	}
	if p.DepositedAmount, err = parseBig(deposited); err != nil {
		return nil, err
	}
	if p.WithdrawnAmount, err = parseBig(withdrawn); err != nil {
		return nil, err
	}
	if p.DepositedWithStakingAmount, err = parseBig(depositedStaking); err != nil {
		return nil, err
	}
	if p.WithdrawnWithStakingAmount, err = parseBig(withdrawnStaking); err != nil {
		return nil, err
	}
	if p.RawAPR, err = parseBig(rawAPR); err != nil {
		return nil, err
	}
	if p.RawTVL, err = parseBig(rawTVL); err != nil {
		return nil, err
	}
	if p.APR, err = parseDec(apr); err != nil {
		return nil, err
	}
	if p.TVL, err = parseDec(tvl); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutPool upserts one liquidity pool.
func (s *PoolStore) PutPool(ctx context.Context, p *domain.LiquidityPool) error {
	const query = `
		INSERT INTO liquidity_pools (
			id, address, core_addresses, version, chain_id, chain_name,
			token_address, token_decimals, asset,
			bets_amount, bets_count, won_bets_amount, won_bets_count,
			deposited_amount, withdrawn_amount,
			deposited_with_staking_amount, withdrawn_with_staking_amount,
			liquidity_manager,
			raw_apr, apr, raw_tvl, tvl,
			withdraw_timeout, days_since_deployment,
			first_calculated_block_number, first_calculated_block_timestamp,
			last_calculated_block_number, last_calculated_block_timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15,
			$16, $17,
			$18,
			$19, $20, $21, $22,
			$23, $24,
			$25, $26,
			$27, $28
		)
		ON CONFLICT (id) DO UPDATE SET
			core_addresses                   = EXCLUDED.core_addresses,
			token_decimals                   = EXCLUDED.token_decimals,
			asset                            = EXCLUDED.asset,
			bets_amount                      = EXCLUDED.bets_amount,
			bets_count                       = EXCLUDED.bets_count,
			won_bets_amount                  = EXCLUDED.won_bets_amount,
			won_bets_count                   = EXCLUDED.won_bets_count,
			deposited_amount                 = EXCLUDED.deposited_amount,
			withdrawn_amount                 = EXCLUDED.withdrawn_amount,
			deposited_with_staking_amount    = EXCLUDED.deposited_with_staking_amount,
			withdrawn_with_staking_amount    = EXCLUDED.withdrawn_with_staking_amount,
			liquidity_manager                = EXCLUDED.liquidity_manager,
			raw_apr                          = EXCLUDED.raw_apr,
			apr                              = EXCLUDED.apr,
			raw_tvl                          = EXCLUDED.raw_tvl,
			tvl                              = EXCLUDED.tvl,
			withdraw_timeout                 = EXCLUDED.withdraw_timeout,
			days_since_deployment            = EXCLUDED.days_since_deployment,
			last_calculated_block_number     = EXCLUDED.last_calculated_block_number,
			last_calculated_block_timestamp  = EXCLUDED.last_calculated_block_timestamp`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Address, strArr(p.CoreAddresses), p.Version, p.ChainID, p.ChainName,
		p.TokenAddress, p.TokenDecimals, p.Asset,
		bigArg(p.BetsAmount), p.BetsCount, bigArg(p.WonBetsAmount), p.WonBetsCount,
		bigArg(p.DepositedAmount), bigArg(p.WithdrawnAmount),
		bigArg(p.DepositedWithStakingAmount), bigArg(p.WithdrawnWithStakingAmount),
		p.LiquidityManager,
		bigArg(p.RawAPR), decArg(p.APR), bigArg(p.RawTVL), decArg(p.TVL),
		p.WithdrawTimeout, p.DaysSinceDeployment,
		p.FirstCalculatedBlockNumber, p.FirstCalculatedBlockTimestamp,
		p.LastCalculatedBlockNumber, p.LastCalculatedBlockTimestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: put pool %s: %w", p.ID, err)
	}
	return nil
}

// GetPoolNFT loads one depositor position by entity id.
func (s *PoolStore) GetPoolNFT(ctx context.Context, id string) (*domain.LiquidityPoolNFT, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, nft_id, liquidity_pool_id, owner, historical_owners,
		       raw_deposited_amount, deposited_amount,
		       raw_withdrawn_amount, withdrawn_amount,
		       is_fully_withdrawn, withdraw_timeout,
		       created_block_number, created_block_timestamp
		FROM liquidity_pool_nfts WHERE id = $1`, id)

	var (
		n domain.LiquidityPoolNFT

		nftID, rawDeposited, rawWithdrawn *string
		deposited, withdrawn              *string
	)
	err := row.Scan(
		&n.ID, &nftID, &n.LiquidityPoolID, &n.Owner, &n.HistoricalOwners,
		&rawDeposited, &deposited,
		&rawWithdrawn, &withdrawn,
		&n.IsFullyWithdrawn, &n.WithdrawTimeout,
		&n.CreatedBlockNumber, &n.CreatedBlockTimestamp,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get pool nft %s: %w", id, err)
	}

	if n.NFTID, err = parseBig(nftID); err != nil {
		return nil, err
	}
	if n.RawDepositedAmount, err = parseBig(rawDeposited); err != nil {
		return nil, err
	}
	if n.RawWithdrawnAmount, err = parseBig(rawWithdrawn); err != nil {
		return nil, err
	}
	if n.DepositedAmount, err = parseDec(deposited); err != nil {
		return nil, err
	}
	if n.WithdrawnAmount, err = parseDec(withdrawn); err != nil {
		return nil, err
	}
	return &n, nil
}

// PutPoolNFT upserts one depositor position.
func (s *PoolStore) PutPoolNFT(ctx context.Context, n *domain.LiquidityPoolNFT) error {
	const query = `
		INSERT INTO liquidity_pool_nfts (
			id, nft_id, liquidity_pool_id, owner, historical_owners,
			raw_deposited_amount, deposited_amount,
			raw_withdrawn_amount, withdrawn_amount,
			is_fully_withdrawn, withdraw_timeout,
			created_block_number, created_block_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			owner                = EXCLUDED.owner,
			historical_owners    = EXCLUDED.historical_owners,
			raw_deposited_amount = EXCLUDED.raw_deposited_amount,
			deposited_amount     = EXCLUDED.deposited_amount,
			raw_withdrawn_amount = EXCLUDED.raw_withdrawn_amount,
			withdrawn_amount     = EXCLUDED.withdrawn_amount,
			is_fully_withdrawn   = EXCLUDED.is_fully_withdrawn,
			withdraw_timeout     = EXCLUDED.withdraw_timeout`

	_, err := s.pool.Exec(ctx, query,
		n.ID, bigArg(n.NFTID), n.LiquidityPoolID, n.Owner, strArr(n.HistoricalOwners),
		bigArg(n.RawDepositedAmount), decArg(n.DepositedAmount),
		bigArg(n.RawWithdrawnAmount), decArg(n.WithdrawnAmount),
		n.IsFullyWithdrawn, n.WithdrawTimeout,
		n.CreatedBlockNumber, n.CreatedBlockTimestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: put pool nft %s: %w", n.ID, err)
	}
	return nil
}

// PutPoolTransaction appends one ledger row. Rows are immutable; replays of
// the same id are ignored.
func (s *PoolStore) PutPoolTransaction(ctx context.Context, t *domain.LiquidityPoolTransaction) error {
	const query = `
		INSERT INTO liquidity_pool_transactions (
			id, tx_hash, account, type, nft_id, liquidity_pool_id,
			raw_amount, amount, block_number, block_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.TxHash, t.Account, string(t.Type), t.NFTID, t.LiquidityPoolID,
		bigArg(t.RawAmount), decArg(t.Amount), t.BlockNumber, t.BlockTimestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: put pool transaction %s: %w", t.ID, err)
	}
	return nil
}
