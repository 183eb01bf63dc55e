package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
)

const (
	bettorA = "0x000000000000000000000000000000000000aaaa"
	bettorB = "0x000000000000000000000000000000000000bbbb"
	bettorC = "0x000000000000000000000000000000000000cccc"
)

func (w *world) placeOrdinar(t *testing.T, tokenID, condNum, outcomeID int64, bettor string, amount int64, odds string) string {
	t.Helper()
	rawOdds, _ := new(big.Int).SetString(odds, 10)
	require.NoError(t, w.engine.HandleNewBet(context.Background(), &domain.NewBetEvent{
		Meta:        evMeta(coreAddress, 30, ts0+30, tokenID),
		ConditionID: big.NewInt(condNum),
		OutcomeID:   big.NewInt(outcomeID),
		TokenID:     big.NewInt(tokenID),
		Bettor:      bettor,
		Affiliate:   "0xaffiliate",
		Odds:        rawOdds,
		Amount:      big.NewInt(amount),
	}))
	return domain.BetEntityID(coreAddress, big.NewInt(tokenID).String())
}

func (w *world) resolveCondition(t *testing.T, condNum int64, winning []*big.Int, block, ts int64) {
	t.Helper()
	require.NoError(t, w.engine.HandleConditionResolved(context.Background(), &domain.ConditionResolvedEvent{
		Meta:            evMeta(coreAddress, block, ts, 0),
		ConditionID:     big.NewInt(condNum),
		WinningOutcomes: winning,
	}))
}

func TestOrdinarBetSettlement(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	condID := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	winnerID := w.placeOrdinar(t, 1, 100, 1, bettorA, 10_000_000, "2363245489767")
	loserID := w.placeOrdinar(t, 2, 100, 2, bettorB, 50_000_000, "1519908870726")

	// Stakes propagate up the whole hierarchy at acceptance.
	cond, err := w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, "60000000", cond.Turnover.String())
	game, err := w.store.GetGame(ctx, cond.GameID)
	require.NoError(t, err)
	assert.Equal(t, "60000000", game.Turnover.String())

	winner, err := w.store.GetBet(ctx, winnerID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusAccepted, winner.Status)
	assert.Equal(t, "23632454", winner.RawPotentialPayout.String())
	assert.Equal(t, "10", winner.Amount.String())

	w.resolveCondition(t, 100, []*big.Int{big.NewInt(1)}, 40, ts0+216_000)

	winner, err = w.store.GetBet(ctx, winnerID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusResolved, winner.Status)
	assert.Equal(t, domain.BetResultWon, winner.Result)
	assert.True(t, winner.IsRedeemable)
	assert.Equal(t, "23632454", winner.RawPayout.String())
	assert.Equal(t, winner.RawOdds.String(), winner.RawSettledOdds.String())
	assert.Equal(t, 1, winner.WonSubBetsCount)

	loser, err := w.store.GetBet(ctx, loserID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetResultLost, loser.Result)
	assert.False(t, loser.IsRedeemable)
	assert.Equal(t, "0", loser.RawPayout.String())
	assert.Equal(t, 1, loser.LostSubBetsCount)

	selWon, err := w.store.GetSelection(ctx, domain.SelectionEntityID(winnerID, "100"))
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionResultWon, selWon.Result)
	selLost, err := w.store.GetSelection(ctx, domain.SelectionEntityID(loserID, "100"))
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionResultLost, selLost.Result)

	// Turnover conservation: the resolution subtracts exactly what the
	// condition accumulated.
	cond, err = w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionStatusResolved, cond.Status)
	game, err = w.store.GetGame(ctx, cond.GameID)
	require.NoError(t, err)
	assert.Equal(t, "0", game.Turnover.String())
	assert.Equal(t, domain.GameStatusResolved, game.Status)
	assert.False(t, game.HasActiveConditions)
	assert.Equal(t, []string{condID}, game.ResolvedConditionIDs)
	assert.Empty(t, game.ActiveConditionIDs)

	league, err := w.store.GetLeague(ctx, game.LeagueID)
	require.NoError(t, err)
	assert.Equal(t, "0", league.Turnover.String())
	assert.False(t, league.HasActiveGames)
	country, err := w.store.GetCountry(ctx, league.CountryID)
	require.NoError(t, err)
	assert.Equal(t, "0", country.Turnover.String())
	assert.False(t, country.HasActiveLeagues)

	// Exactly one BetSettled audit row per finalized bet.
	settled := 0
	for _, e := range w.store.AuditEvents() {
		if e.Name == "BetSettled" {
			settled++
		}
	}
	assert.Equal(t, 2, settled)

	pool, err := w.store.GetPool(ctx, lpAddress)
	require.NoError(t, err)
	assert.Equal(t, "60000000", pool.BetsAmount.String())
	assert.Equal(t, "23632454", pool.WonBetsAmount.String())
	assert.Equal(t, int64(1), pool.BetsCount)
}

func TestCanceledConditionRefundsBets(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	condID := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	betID := w.placeOrdinar(t, 1, 100, 1, bettorA, 10_000_000, "2363245489767")

	// A lone zero in the winning set cancels the market.
	w.resolveCondition(t, 100, []*big.Int{big.NewInt(0)}, 40, ts0+40)

	cond, err := w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionStatusCanceled, cond.Status)
	assert.Nil(t, cond.WonOutcomeIDs)

	bet, err := w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusCanceled, bet.Status)
	assert.Empty(t, bet.Result)
	assert.True(t, bet.IsRedeemable)
	assert.Equal(t, "10000000", bet.RawPayout.String())
	assert.Equal(t, 1, bet.CanceledSubBetsCount)

	// The selection keeps no result on cancellation.
	sel, err := w.store.GetSelection(ctx, domain.SelectionEntityID(betID, "100"))
	require.NoError(t, err)
	assert.Empty(t, sel.Result)

	game, err := w.store.GetGame(ctx, cond.GameID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusCanceled, game.Status)
	assert.Equal(t, []string{condID}, game.CanceledConditionIDs)
}

func TestExpressBetSettlement(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	w.createCondition(t, 101, 1, goldenFunds(), 75_000_000_000, 1)

	require.NoError(t, w.engine.HandleNewExpressBet(ctx, &domain.NewExpressBetEvent{
		Meta:  evMeta(expressAddress, 31, ts0+31, 0),
		BetID: big.NewInt(7),
		SubBets: []domain.SubBet{
			{ConditionID: big.NewInt(100), OutcomeID: big.NewInt(1), Odds: big.NewInt(2_363_245_489_767)},
			{ConditionID: big.NewInt(101), OutcomeID: big.NewInt(1), Odds: big.NewInt(2_363_245_489_767)},
		},
		Odds:   big.NewInt(5_000_000_000_000),
		Amount: big.NewInt(20_000_000),
		Bettor: bettorC,
	}))
	betID := domain.BetEntityID(expressAddress, "7")

	bet, err := w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetTypeExpress, bet.Type)
	assert.Equal(t, 2, bet.SubBetsCount)
	assert.Equal(t, "100000000", bet.RawPotentialPayout.String())

	// Express stakes do not enter condition turnover.
	cond, err := w.store.GetCondition(ctx, domain.ConditionEntityID(coreAddress, "100"))
	require.NoError(t, err)
	assert.Equal(t, "0", cond.Turnover.String())

	w.payout.payouts["7"] = big.NewInt(55_000_000)

	w.resolveCondition(t, 100, []*big.Int{big.NewInt(1)}, 40, ts0+40)
	bet, err = w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusAccepted, bet.Status)
	assert.Equal(t, 1, bet.WonSubBetsCount)
	assert.Nil(t, bet.RawPayout)

	w.resolveCondition(t, 101, []*big.Int{big.NewInt(1)}, 41, ts0+41)
	bet, err = w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusResolved, bet.Status)
	assert.Equal(t, domain.BetResultWon, bet.Result)
	assert.Equal(t, "55000000", bet.RawPayout.String())
	// settled odds = payout scaled by the odds base over the stake
	assert.Equal(t, "2750000000000", bet.RawSettledOdds.String())
}

func TestExpressBetOracleFailureSettlesZero(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	require.NoError(t, w.engine.HandleNewExpressBet(ctx, &domain.NewExpressBetEvent{
		Meta:  evMeta(expressAddress, 31, ts0+31, 0),
		BetID: big.NewInt(8),
		SubBets: []domain.SubBet{
			{ConditionID: big.NewInt(100), OutcomeID: big.NewInt(1), Odds: big.NewInt(2_363_245_489_767)},
		},
		Odds:   big.NewInt(2_363_245_489_767),
		Amount: big.NewInt(20_000_000),
		Bettor: bettorC,
	}))

	// No payout registered for bet 8: the oracle call reverts.
	w.resolveCondition(t, 100, []*big.Int{big.NewInt(1)}, 40, ts0+40)

	bet, err := w.store.GetBet(ctx, domain.BetEntityID(expressAddress, "8"))
	require.NoError(t, err)
	assert.Equal(t, domain.BetResultWon, bet.Result)
	assert.Equal(t, "0", bet.RawPayout.String())
	assert.Equal(t, bet.RawOdds.String(), bet.RawSettledOdds.String())
}

func TestAllLegsCanceledRefundsExpress(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	w.createCondition(t, 101, 1, goldenFunds(), 75_000_000_000, 1)

	require.NoError(t, w.engine.HandleNewExpressBet(ctx, &domain.NewExpressBetEvent{
		Meta:  evMeta(expressAddress, 31, ts0+31, 0),
		BetID: big.NewInt(9),
		SubBets: []domain.SubBet{
			{ConditionID: big.NewInt(100), OutcomeID: big.NewInt(1), Odds: big.NewInt(2_000_000_000_000)},
			{ConditionID: big.NewInt(101), OutcomeID: big.NewInt(2), Odds: big.NewInt(1_500_000_000_000)},
		},
		Odds:   big.NewInt(3_000_000_000_000),
		Amount: big.NewInt(20_000_000),
		Bettor: bettorC,
	}))

	w.resolveCondition(t, 100, nil, 40, ts0+40)
	w.resolveCondition(t, 101, nil, 41, ts0+41)

	bet, err := w.store.GetBet(ctx, domain.BetEntityID(expressAddress, "9"))
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusCanceled, bet.Status)
	assert.True(t, bet.IsRedeemable)
	assert.Equal(t, "20000000", bet.RawPayout.String())
	assert.Equal(t, 2, bet.CanceledSubBetsCount)
}

func TestBettorWinMarksRedeemed(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	betID := w.placeOrdinar(t, 1, 100, 1, bettorA, 10_000_000, "2363245489767")
	w.resolveCondition(t, 100, []*big.Int{big.NewInt(1)}, 40, ts0+40)

	require.NoError(t, w.engine.HandleBettorWin(ctx, &domain.BettorWinEvent{
		Meta:    evMeta(coreAddress, 50, ts0+50, 0),
		TokenID: big.NewInt(1),
		Amount:  big.NewInt(23_632_454),
	}))

	bet, err := w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.True(t, bet.IsRedeemed)
	assert.False(t, bet.IsRedeemable)
	assert.Equal(t, "23632454", bet.RawPayout.String())
}

func TestBetTransferMovesOwnerAndActor(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	betID := w.placeOrdinar(t, 1, 100, 1, bettorA, 10_000_000, "2363245489767")

	require.NoError(t, w.engine.HandleBetTransfer(ctx, &domain.BetTransferEvent{
		Meta:        evMeta(coreAddress, 50, ts0+50, 0),
		TokenID:     big.NewInt(1),
		From:        bettorA,
		To:          bettorB,
		CoreAddress: coreAddress,
	}))

	bet, err := w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, bettorB, bet.Owner)
	assert.Equal(t, bettorB, bet.Actor)

	// Mints and burns are ignored.
	require.NoError(t, w.engine.HandleBetTransfer(ctx, &domain.BetTransferEvent{
		Meta:        evMeta(coreAddress, 51, ts0+51, 0),
		TokenID:     big.NewInt(1),
		From:        bettorB,
		To:          domain.ZeroAddress,
		CoreAddress: coreAddress,
	}))
	bet, err = w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, bettorB, bet.Owner)
}

func TestBetTransferKeepsFreebetActor(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	betID := w.placeOrdinar(t, 1, 100, 1, bettorA, 10_000_000, "2363245489767")

	require.NoError(t, w.engine.HandleFreebetMinted(ctx, &domain.FreebetMintedEvent{
		Meta:         evMeta(freebetAddress, 35, ts0+35, 0),
		FreebetID:    big.NewInt(5),
		Owner:        bettorC,
		Amount:       big.NewInt(10_000_000),
		MinOdds:      big.NewInt(1_100_000_000_000),
		DurationTime: 3600,
	}))
	require.NoError(t, w.engine.HandleFreebetRedeemed(ctx, &domain.FreebetRedeemedEvent{
		Meta:        evMeta(freebetAddress, 36, ts0+36, 0),
		FreebetID:   big.NewInt(5),
		CoreAddress: coreAddress,
		BetID:       big.NewInt(1),
	}))

	bet, err := w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.True(t, bet.IsFreebet)
	assert.Equal(t, bettorC, bet.Bettor)
	assert.Equal(t, bettorC, bet.Actor)

	// NFT transfer moves the owner but the actor stays with the grant.
	require.NoError(t, w.engine.HandleBetTransfer(ctx, &domain.BetTransferEvent{
		Meta:        evMeta(coreAddress, 50, ts0+50, 0),
		TokenID:     big.NewInt(1),
		From:        bettorC,
		To:          bettorB,
		CoreAddress: coreAddress,
	}))
	bet, err = w.store.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, bettorB, bet.Owner)
	assert.Equal(t, bettorC, bet.Actor)
}
