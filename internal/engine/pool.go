package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/alanyoungcy/betcore/internal/domain"
)

const secondsPerDay = 86_400

// xProfit is the pool's profit share in percent, used by the APR formula.
const xProfit = 75

// CoreSeed describes one betting core of a pool known at startup.
type CoreSeed struct {
	Address         string
	Type            string
	Version         domain.ProtocolVersion
	PrematchAddress string
}

// PoolSeed describes one liquidity pool known at startup.
type PoolSeed struct {
	Address          string
	Version          string
	TokenAddress     string
	LiquidityManager string
	Cores            []CoreSeed

	// FirstBlock anchors daysSinceDeployment; deployments migrated between
	// chains carry a configured override instead of their genesis block.
	FirstBlock domain.BlockRef
}

// RegisterPool upserts a pool and its core contracts from configuration.
// Token metadata and the opening TVL come from the token reader, which
// degrades to defaults instead of failing.
func (e *Engine) RegisterPool(ctx context.Context, seed PoolSeed) error {
	if _, err := e.store.GetPool(ctx, seed.Address); err == nil {
		return e.registerCores(ctx, seed)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	decimals := e.readers.Token.Decimals(ctx, seed.TokenAddress)
	symbol := e.readers.Token.Symbol(ctx, seed.TokenAddress)
	tvl := e.readers.Token.BalanceOf(ctx, seed.TokenAddress, seed.Address)

	addresses := make([]string, len(seed.Cores))
	for i, c := range seed.Cores {
		addresses[i] = c.Address
	}

	pool := &domain.LiquidityPool{
		ID:            seed.Address,
		Address:       seed.Address,
		CoreAddresses: addresses,
		Version:       seed.Version,
		ChainID:       e.opts.ChainID,
		ChainName:     e.opts.ChainName,
		TokenAddress:  seed.TokenAddress,
		TokenDecimals: decimals,
		Asset:         symbol,

		BetsAmount:    new(big.Int),
		WonBetsAmount: new(big.Int),

		DepositedAmount:            new(big.Int),
		WithdrawnAmount:            new(big.Int),
		DepositedWithStakingAmount: new(big.Int),
		WithdrawnWithStakingAmount: new(big.Int),

		LiquidityManager: seed.LiquidityManager,

		RawAPR: new(big.Int),
		APR:    domain.ToDecimal(new(big.Int), 6),
		RawTVL: tvl,
		TVL:    domain.ToDecimal(tvl, decimals),

		FirstCalculatedBlockNumber:    seed.FirstBlock.Number,
		FirstCalculatedBlockTimestamp: seed.FirstBlock.Timestamp,
		LastCalculatedBlockNumber:     seed.FirstBlock.Number,
		LastCalculatedBlockTimestamp:  seed.FirstBlock.Timestamp,
	}
	if err := e.store.PutPool(ctx, pool); err != nil {
		return err
	}
	return e.registerCores(ctx, seed)
}

func (e *Engine) registerCores(ctx context.Context, seed PoolSeed) error {
	for _, c := range seed.Cores {
		core := &domain.CoreContract{
			ID:              c.Address,
			Address:         c.Address,
			Version:         c.Version,
			Type:            c.Type,
			LiquidityPoolID: seed.Address,
			PrematchAddress: c.PrematchAddress,
		}
		if err := e.store.PutCoreContract(ctx, core); err != nil {
			return err
		}
	}
	return nil
}

// HandleLiquidityDeposited opens a depositor position and grows the pool's
// deposited capital.
func (e *Engine) HandleLiquidityDeposited(ctx context.Context, ev *domain.LiquidityDepositedEvent) error {
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}

	ts := ev.Meta.Block.Timestamp
	nftID := domain.PoolNFTEntityID(pool.ID, ev.Leaf.String())
	nft := &domain.LiquidityPoolNFT{
		ID:                    nftID,
		NFTID:                 ev.Leaf,
		LiquidityPoolID:       pool.ID,
		Owner:                 ev.Account,
		HistoricalOwners:      []string{ev.Account},
		RawDepositedAmount:    ev.Amount,
		DepositedAmount:       domain.ToDecimal(ev.Amount, pool.TokenDecimals),
		RawWithdrawnAmount:    new(big.Int),
		WithdrawnAmount:       domain.ToDecimal(new(big.Int), pool.TokenDecimals),
		WithdrawTimeout:       pool.WithdrawTimeout,
		CreatedBlockNumber:    ev.Meta.Block.Number,
		CreatedBlockTimestamp: ts,
	}
	if err := e.store.PutPoolNFT(ctx, nft); err != nil {
		return err
	}

	pool.DepositedAmount = new(big.Int).Add(pool.DepositedAmount, ev.Amount)
	pool.DepositedWithStakingAmount = new(big.Int).Add(pool.DepositedWithStakingAmount, ev.Amount)
	pool.LastCalculatedBlockNumber = ev.Meta.Block.Number
	pool.LastCalculatedBlockTimestamp = ts
	e.recomputePoolDerived(ctx, pool)
	if err := e.store.PutPool(ctx, pool); err != nil {
		return err
	}

	if err := e.putPoolTransaction(ctx, pool, ev.Meta, ev.Account, domain.PoolTransactionDeposit, nftID, ev.Amount); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "LiquidityDeposited", "leaf", ev.Leaf.String())
}

// HandleLiquidityWithdrawn shrinks a depositor position and the pool's
// deposited capital.
func (e *Engine) HandleLiquidityWithdrawn(ctx context.Context, ev *domain.LiquidityWithdrawnEvent) error {
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	nftID := domain.PoolNFTEntityID(pool.ID, ev.Leaf.String())
	nft, err := e.store.GetPoolNFT(ctx, nftID)
	if err != nil {
		return fmt.Errorf("engine: liquidity withdrawn: nft %s: %w", nftID, err)
	}

	ts := ev.Meta.Block.Timestamp
	nft.RawWithdrawnAmount = new(big.Int).Add(nft.RawWithdrawnAmount, ev.Amount)
	nft.WithdrawnAmount = domain.ToDecimal(nft.RawWithdrawnAmount, pool.TokenDecimals)
	nft.IsFullyWithdrawn = ev.IsFullyWithdrawn
	if err := e.store.PutPoolNFT(ctx, nft); err != nil {
		return err
	}

	pool.WithdrawnAmount = new(big.Int).Add(pool.WithdrawnAmount, ev.Amount)
	pool.WithdrawnWithStakingAmount = new(big.Int).Add(pool.WithdrawnWithStakingAmount, ev.Amount)
	pool.LastCalculatedBlockNumber = ev.Meta.Block.Number
	pool.LastCalculatedBlockTimestamp = ts
	e.recomputePoolDerived(ctx, pool)
	if err := e.store.PutPool(ctx, pool); err != nil {
		return err
	}

	if err := e.putPoolTransaction(ctx, pool, ev.Meta, ev.Account, domain.PoolTransactionWithdrawal, nftID, ev.Amount); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "LiquidityWithdrawn", "leaf", ev.Leaf.String())
}

// HandleLiquidityTransfer moves a depositor position to a new owner. Burns
// are skipped; the position's withdrawal state is tracked by its own events.
func (e *Engine) HandleLiquidityTransfer(ctx context.Context, ev *domain.LiquidityTransferEvent) error {
	if ev.To == domain.ZeroAddress {
		return nil
	}
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	nftID := domain.PoolNFTEntityID(pool.ID, ev.Leaf.String())
	nft, err := e.store.GetPoolNFT(ctx, nftID)
	if err != nil {
		return fmt.Errorf("engine: liquidity transfer: nft %s: %w", nftID, err)
	}
	nft.Owner = ev.To
	nft.HistoricalOwners = appendUnique(nft.HistoricalOwners, ev.To)
	if err := e.store.PutPoolNFT(ctx, nft); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "LiquidityTransfer", "leaf", ev.Leaf.String())
}

// HandleWithdrawTimeoutChanged updates the pool-wide withdrawal cool-off.
func (e *Engine) HandleWithdrawTimeoutChanged(ctx context.Context, ev *domain.WithdrawTimeoutChangedEvent) error {
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	pool.WithdrawTimeout = ev.NewTimeout
	if err := e.store.PutPool(ctx, pool); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "WithdrawTimeoutChanged", "liquidityPool", pool.ID)
}

// countConditionResolved feeds one condition's settlement totals into the
// pool aggregates and refreshes the derived APR and TVL.
func (e *Engine) countConditionResolved(ctx context.Context, poolID string, betsAmount, wonBetsAmount *big.Int, block domain.BlockRef) error {
	pool, err := e.pool(ctx, poolID)
	if err != nil {
		return err
	}
	pool.BetsAmount = new(big.Int).Add(pool.BetsAmount, betsAmount)
	pool.BetsCount++
	pool.WonBetsAmount = new(big.Int).Add(pool.WonBetsAmount, wonBetsAmount)
	pool.WonBetsCount++
	pool.LastCalculatedBlockNumber = block.Number
	pool.LastCalculatedBlockTimestamp = block.Timestamp
	e.recomputePoolDerived(ctx, pool)
	return e.store.PutPool(ctx, pool)
}

// recomputePoolDerived refreshes daysSinceDeployment, APR and TVL. The APR
// carries 6 implied decimals and is only defined once the pool has both age
// and net deposited capital.
func (e *Engine) recomputePoolDerived(ctx context.Context, pool *domain.LiquidityPool) {
	days := daysBetween(pool.FirstCalculatedBlockTimestamp, pool.LastCalculatedBlockTimestamp)
	pool.DaysSinceDeployment = days

	net := new(big.Int).Sub(pool.DepositedAmount, pool.WithdrawnAmount)
	if days > 0 && net.Sign() > 0 {
		apr := new(big.Int).Sub(pool.BetsAmount, pool.WonBetsAmount)
		apr.Mul(apr, big.NewInt(xProfit))
		apr.Quo(apr, big.NewInt(100))
		apr.Mul(apr, big.NewInt(365))
		apr.Mul(apr, big.NewInt(100_000_000))
		apr.Quo(apr, big.NewInt(days))
		apr.Quo(apr, net)
		pool.RawAPR = apr
		pool.APR = domain.ToDecimal(apr, 6)
	}

	// A missing or zero balance read keeps the last known TVL.
	tvl := e.readers.Token.BalanceOf(ctx, pool.TokenAddress, pool.Address)
	if tvl != nil && tvl.Sign() != 0 {
		pool.RawTVL = tvl
		pool.TVL = domain.ToDecimal(tvl, pool.TokenDecimals)
	}
}

func (e *Engine) putPoolTransaction(ctx context.Context, pool *domain.LiquidityPool, meta domain.EventMeta, account string, typ domain.PoolTransactionType, nftID string, amount *big.Int) error {
	tx := &domain.LiquidityPoolTransaction{
		ID:              uuid.NewString(),
		TxHash:          meta.TxHash,
		Account:         account,
		Type:            typ,
		NFTID:           nftID,
		LiquidityPoolID: pool.ID,
		RawAmount:       amount,
		Amount:          domain.ToDecimal(amount, pool.TokenDecimals),
		BlockNumber:     meta.Block.Number,
		BlockTimestamp:  meta.Block.Timestamp,
	}
	return e.store.PutPoolTransaction(ctx, tx)
}

// daysBetween is the whole-day ceiling between two unix timestamps, floored
// at zero.
func daysBetween(first, last int64) int64 {
	if last <= first {
		return 0
	}
	return (last - first + secondsPerDay - 1) / secondsPerDay
}
