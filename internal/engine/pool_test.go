package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
)

func TestPoolAPRAfterSettlement(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.engine.HandleLiquidityDeposited(ctx, &domain.LiquidityDepositedEvent{
		Meta:    evMeta(lpAddress, 5, ts0+10, 0),
		Leaf:    big.NewInt(11),
		Account: bettorA,
		Amount:  big.NewInt(1_000_000_000),
	}))

	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	w.placeOrdinar(t, 1, 100, 1, bettorA, 10_000_000, "2363245489767")
	w.placeOrdinar(t, 2, 100, 2, bettorB, 50_000_000, "1519908870726")

	// Two and a half days after deployment rounds up to three whole days.
	w.resolveCondition(t, 100, []*big.Int{big.NewInt(1)}, 40, ts0+216_000)

	pool, err := w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pool.DaysSinceDeployment)
	assert.Equal(t, "60000000", pool.BetsAmount.String())
	assert.Equal(t, "23632454", pool.WonBetsAmount.String())
	assert.Equal(t, "331853851", pool.RawAPR.String())
	assert.Equal(t, "331.853851", pool.APR.String())
	assert.Equal(t, "5000000000", pool.RawTVL.String())
	assert.Equal(t, "5000", pool.TVL.String())
}

func TestLiquidityDepositWithdrawLedger(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.engine.HandleLiquidityDeposited(ctx, &domain.LiquidityDepositedEvent{
		Meta:    evMeta(lpAddress, 5, ts0+10, 0),
		Leaf:    big.NewInt(11),
		Account: bettorA,
		Amount:  big.NewInt(1_000_000_000),
	}))
	require.NoError(t, w.engine.HandleLiquidityWithdrawn(ctx, &domain.LiquidityWithdrawnEvent{
		Meta:    evMeta(lpAddress, 6, ts0+20, 0),
		Leaf:    big.NewInt(11),
		Account: bettorA,
		Amount:  big.NewInt(400_000_000),
	}))

	pool, err := w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", pool.DepositedAmount.String())
	assert.Equal(t, "400000000", pool.WithdrawnAmount.String())

	nft, err := w.store.GetPoolNFT(ctx, domain.PoolNFTEntityID(lpAddress, "11"))
	require.NoError(t, err)
	assert.Equal(t, bettorA, nft.Owner)
	assert.Equal(t, "1000000000", nft.RawDepositedAmount.String())
	assert.Equal(t, "400000000", nft.RawWithdrawnAmount.String())
	assert.False(t, nft.IsFullyWithdrawn)

	txs := w.store.PoolTransactions()
	require.Len(t, txs, 2)
	assert.Equal(t, domain.PoolTransactionDeposit, txs[0].Type)
	assert.Equal(t, domain.PoolTransactionWithdrawal, txs[1].Type)
	assert.Equal(t, "400000000", txs[1].RawAmount.String())

	require.NoError(t, w.engine.HandleLiquidityWithdrawn(ctx, &domain.LiquidityWithdrawnEvent{
		Meta:             evMeta(lpAddress, 7, ts0+30, 0),
		Leaf:             big.NewInt(11),
		Account:          bettorA,
		Amount:           big.NewInt(600_000_000),
		IsFullyWithdrawn: true,
	}))
	nft, err = w.store.GetPoolNFT(ctx, domain.PoolNFTEntityID(lpAddress, "11"))
	require.NoError(t, err)
	assert.True(t, nft.IsFullyWithdrawn)
	assert.Equal(t, "1000000000", nft.RawWithdrawnAmount.String())
}

func TestLiquidityTransferTracksOwners(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.engine.HandleLiquidityDeposited(ctx, &domain.LiquidityDepositedEvent{
		Meta:    evMeta(lpAddress, 5, ts0+10, 0),
		Leaf:    big.NewInt(11),
		Account: bettorA,
		Amount:  big.NewInt(1_000_000_000),
	}))
	require.NoError(t, w.engine.HandleLiquidityTransfer(ctx, &domain.LiquidityTransferEvent{
		Meta: evMeta(lpAddress, 6, ts0+20, 0),
		Leaf: big.NewInt(11),
		To:   bettorB,
	}))

	nft, err := w.store.GetPoolNFT(ctx, domain.PoolNFTEntityID(lpAddress, "11"))
	require.NoError(t, err)
	assert.Equal(t, bettorB, nft.Owner)
	assert.Equal(t, []string{bettorA, bettorB}, nft.HistoricalOwners)

	// Burns are skipped.
	require.NoError(t, w.engine.HandleLiquidityTransfer(ctx, &domain.LiquidityTransferEvent{
		Meta: evMeta(lpAddress, 7, ts0+30, 0),
		Leaf: big.NewInt(11),
		To:   domain.ZeroAddress,
	}))
	nft, err = w.store.GetPoolNFT(ctx, domain.PoolNFTEntityID(lpAddress, "11"))
	require.NoError(t, err)
	assert.Equal(t, bettorB, nft.Owner)
}

func TestTVLKeepsLastValueOnEmptyBalance(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.engine.HandleLiquidityDeposited(ctx, &domain.LiquidityDepositedEvent{
		Meta:    evMeta(lpAddress, 5, ts0+10, 0),
		Leaf:    big.NewInt(11),
		Account: bettorA,
		Amount:  big.NewInt(1_000_000_000),
	}))

	pool, err := w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	require.Equal(t, "5000000000", pool.RawTVL.String())

	// Zero and missing balance reads keep the last known TVL.
	w.token.balance = big.NewInt(0)
	require.NoError(t, w.engine.HandleLiquidityDeposited(ctx, &domain.LiquidityDepositedEvent{
		Meta:    evMeta(lpAddress, 6, ts0+20, 0),
		Leaf:    big.NewInt(12),
		Account: bettorB,
		Amount:  big.NewInt(2_000_000_000),
	}))

	pool, err = w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	assert.Equal(t, "5000000000", pool.RawTVL.String())
	assert.Equal(t, "5000", pool.TVL.String())

	w.token.balance = nil
	require.NoError(t, w.engine.HandleLiquidityWithdrawn(ctx, &domain.LiquidityWithdrawnEvent{
		Meta:    evMeta(lpAddress, 7, ts0+30, 0),
		Leaf:    big.NewInt(11),
		Account: bettorA,
		Amount:  big.NewInt(400_000_000),
	}))

	pool, err = w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	assert.Equal(t, "5000000000", pool.RawTVL.String())
}

func TestWithdrawTimeoutChanged(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	require.NoError(t, w.engine.HandleWithdrawTimeoutChanged(ctx, &domain.WithdrawTimeoutChangedEvent{
		Meta:       evMeta(lpAddress, 5, ts0+10, 0),
		NewTimeout: 7200,
	}))
	pool, err := w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(7200), pool.WithdrawTimeout)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, int64(0), daysBetween(100, 100))
	assert.Equal(t, int64(0), daysBetween(200, 100))
	assert.Equal(t, int64(1), daysBetween(0, 1))
	assert.Equal(t, int64(1), daysBetween(0, secondsPerDay))
	assert.Equal(t, int64(2), daysBetween(0, secondsPerDay+1))
	assert.Equal(t, int64(3), daysBetween(ts0, ts0+216_000))
}
