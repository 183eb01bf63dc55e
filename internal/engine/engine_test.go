package engine

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/store/memory"
)

const (
	lpAddress      = "0x00000000000000000000000000000000000000a1"
	coreAddress    = "0x00000000000000000000000000000000000000b2"
	expressAddress = "0x00000000000000000000000000000000000000c3"
	freebetAddress = "0x00000000000000000000000000000000000000d4"
	tokenAddress   = "0x00000000000000000000000000000000000000e5"

	ts0 = int64(1_700_000_000)
)

type fakeConditionReader struct {
	state *domain.ConditionState
	err   error
}

func (f *fakeConditionReader) GetCondition(context.Context, string, *big.Int) (*domain.ConditionState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

type fakeTokenReader struct {
	decimals int
	symbol   string
	balance  *big.Int
}

func (f *fakeTokenReader) Decimals(context.Context, string) int  { return f.decimals }
func (f *fakeTokenReader) Symbol(context.Context, string) string { return f.symbol }
func (f *fakeTokenReader) BalanceOf(context.Context, string, string) *big.Int {
	return f.balance
}

// fakePayout answers CalcPayout from a bet-id keyed table; absent ids revert.
type fakePayout struct {
	payouts map[string]*big.Int
}

func (f *fakePayout) CalcPayout(_ context.Context, _ string, betID *big.Int) (*big.Int, bool) {
	amt, ok := f.payouts[betID.String()]
	return amt, ok
}

type fakeMetadata struct {
	md  *domain.GameMetadata
	err error
}

func (f *fakeMetadata) FetchGame(context.Context, string) (*domain.GameMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.md, nil
}

type world struct {
	engine *Engine
	store  *memory.Store
	cond   *fakeConditionReader
	token  *fakeTokenReader
	payout *fakePayout
	meta   *fakeMetadata
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	cond := &fakeConditionReader{}
	token := &fakeTokenReader{decimals: 6, symbol: "USDT", balance: big.NewInt(5_000_000_000)}
	payout := &fakePayout{payouts: map[string]*big.Int{}}
	md := &fakeMetadata{md: &domain.GameMetadata{
		SportID:     big.NewInt(33),
		CountryName: "England",
		LeagueName:  "Premier League",
		Participants: []domain.GameMetadataParticipant{
			{Name: "Arsenal", Image: "arsenal.png"},
			{Name: "Chelsea", Image: "chelsea.png"},
		},
	}}

	e := New(store, Readers{
		Condition: cond,
		Token:     token,
		Payout:    payout,
		Metadata:  md,
	}, Options{
		ChainID:   137,
		ChainName: "polygon",
		Sports:    map[string]SportEntry{"33": {Name: "Football", Hub: "Sports"}},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	require.NoError(t, e.RegisterPool(ctx, PoolSeed{
		Address:      lpAddress,
		Version:      "V3",
		TokenAddress: tokenAddress,
		FirstBlock:   domain.BlockRef{Number: 1, Timestamp: ts0},
		Cores: []CoreSeed{
			{Address: coreAddress, Type: "single", Version: domain.VersionV3},
			{Address: expressAddress, Type: "express", Version: domain.VersionV3, PrematchAddress: coreAddress},
		},
	}))
	require.NoError(t, e.RegisterFreebetContract(ctx, FreebetContractSeed{
		Address:         freebetAddress,
		LiquidityPoolID: lpAddress,
		Name:            "freebet",
		Affiliate:       "0xaffiliate",
	}))

	return &world{engine: e, store: store, cond: cond, token: token, payout: payout, meta: md}
}

func evMeta(contract string, block, ts, logIdx int64) domain.EventMeta {
	return domain.EventMeta{
		ContractAddress: contract,
		TxHash:          "0xtx" + strconv.FormatInt(block, 10) + "_" + strconv.FormatInt(logIdx, 10),
		LogIndex:        logIdx,
		Block:           domain.BlockRef{Number: block, Timestamp: ts},
	}
}

func (w *world) createGame(t *testing.T, gameNum int64) string {
	t.Helper()
	require.NoError(t, w.engine.HandleGameCreated(context.Background(), &domain.GameCreatedEvent{
		Meta:         evMeta(lpAddress, 10, ts0+10, 0),
		GameID:       big.NewInt(gameNum),
		MetadataHash: "bafkgame" + strconv.FormatInt(gameNum, 10),
		StartsAt:     ts0 + 3600,
	}))
	return domain.GameEntityID(lpAddress, strconv.FormatInt(gameNum, 10))
}

// createCondition seeds the contract reader with the given funds and creates
// a condition with outcome ids 1..len(funds).
func (w *world) createCondition(t *testing.T, condNum, gameNum int64, funds []*big.Int, margin int64, wc uint8) string {
	t.Helper()
	w.cond.state = &domain.ConditionState{
		Margin:               big.NewInt(margin),
		Reinforcement:        big.NewInt(0),
		VirtualFunds:         funds,
		WinningOutcomesCount: wc,
	}
	outcomes := make([]*big.Int, len(funds))
	for i := range funds {
		outcomes[i] = big.NewInt(int64(i + 1))
	}
	require.NoError(t, w.engine.HandleConditionCreated(context.Background(), &domain.ConditionCreatedEvent{
		Meta:        evMeta(coreAddress, 20, ts0+20, 0),
		ConditionID: big.NewInt(condNum),
		GameID:      big.NewInt(gameNum),
		OutcomeIDs:  outcomes,
	}))
	return domain.ConditionEntityID(coreAddress, strconv.FormatInt(condNum, 10))
}

func goldenFunds() []*big.Int {
	f1, _ := new(big.Int).SetString("114598540145985401459854", 10)
	f2, _ := new(big.Int).SetString("185401459854014598540146", 10)
	return []*big.Int{f1, f2}
}

func TestGameCreatedBuildsTaxonomy(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	gameID := w.createGame(t, 1)

	game, err := w.store.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, "Arsenal - Chelsea", game.Title)
	assert.Equal(t, "arsenal-chelsea", game.Slug)
	assert.Equal(t, domain.GameStatusCreated, game.Status)
	assert.False(t, game.HasActiveConditions)

	sport, err := w.store.GetSport(ctx, "33")
	require.NoError(t, err)
	assert.Equal(t, "Football", sport.Name)
	assert.Equal(t, "sports", sport.SportHubID)

	country, err := w.store.GetCountry(ctx, domain.CountryEntityID("33", "England"))
	require.NoError(t, err)
	assert.Equal(t, "england", country.Slug)

	league, err := w.store.GetLeague(ctx, game.LeagueID)
	require.NoError(t, err)
	assert.Equal(t, "premier-league", league.Slug)
	assert.False(t, league.HasActiveGames)

	p0, err := w.store.GetParticipant(ctx, domain.ParticipantEntityID(gameID, "0"))
	require.NoError(t, err)
	assert.Equal(t, "Arsenal", p0.Name)
}

func TestGameCreatedMetadataFailureLeavesNothing(t *testing.T) {
	w := newWorld(t)
	w.meta.err = assert.AnError

	err := w.engine.HandleGameCreated(context.Background(), &domain.GameCreatedEvent{
		Meta:         evMeta(lpAddress, 10, ts0+10, 0),
		GameID:       big.NewInt(9),
		MetadataHash: "bafkbroken",
	})
	require.Error(t, err)

	_, err = w.store.GetGame(context.Background(), domain.GameEntityID(lpAddress, "9"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConditionCreatedComputesOddsAndActivatesHierarchy(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	condID := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	cond, err := w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionStatusCreated, cond.Status)

	out1, err := w.store.GetOutcome(ctx, domain.OutcomeEntityID(condID, "1"))
	require.NoError(t, err)
	assert.Equal(t, "2363245489767", out1.RawCurrentOdds.String())
	assert.Equal(t, "2.363245489767", out1.CurrentOdds.String())

	out2, err := w.store.GetOutcome(ctx, domain.OutcomeEntityID(condID, "2"))
	require.NoError(t, err)
	assert.Equal(t, "1519908870726", out2.RawCurrentOdds.String())

	game, err := w.store.GetGame(ctx, cond.GameID)
	require.NoError(t, err)
	assert.True(t, game.HasActiveConditions)
	assert.Equal(t, []string{condID}, game.ActiveConditionIDs)

	league, err := w.store.GetLeague(ctx, game.LeagueID)
	require.NoError(t, err)
	assert.True(t, league.HasActiveGames)
	assert.Equal(t, []string{game.ID}, league.ActiveGameIDs)

	country, err := w.store.GetCountry(ctx, league.CountryID)
	require.NoError(t, err)
	assert.True(t, country.HasActiveLeagues)
	assert.Equal(t, []string{league.ID}, country.ActiveLeagueIDs)
}

func TestConditionCreatedNumericFailurePersistsNothing(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)

	// Zero funds fail the odds model before anything is saved.
	w.cond.state = &domain.ConditionState{
		Margin:               big.NewInt(75_000_000_000),
		Reinforcement:        big.NewInt(0),
		VirtualFunds:         []*big.Int{big.NewInt(0), big.NewInt(0)},
		WinningOutcomesCount: 1,
	}
	err := w.engine.HandleConditionCreated(ctx, &domain.ConditionCreatedEvent{
		Meta:        evMeta(coreAddress, 20, ts0+20, 0),
		ConditionID: big.NewInt(100),
		GameID:      big.NewInt(1),
		OutcomeIDs:  []*big.Int{big.NewInt(1), big.NewInt(2)},
	})
	require.Error(t, err)

	_, err = w.store.GetCondition(ctx, domain.ConditionEntityID(coreAddress, "100"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	game, err := w.store.GetGame(ctx, domain.GameEntityID(lpAddress, "1"))
	require.NoError(t, err)
	assert.False(t, game.HasActiveConditions)
	assert.Empty(t, game.ActiveConditionIDs)
}

func TestOddsChangedIsIdempotent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	condID := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	ev := &domain.OddsChangedEvent{
		Meta:        evMeta(coreAddress, 21, ts0+21, 0),
		ConditionID: big.NewInt(100),
	}
	require.NoError(t, w.engine.HandleOddsChanged(ctx, ev))
	first, err := w.store.GetOutcome(ctx, domain.OutcomeEntityID(condID, "1"))
	require.NoError(t, err)

	require.NoError(t, w.engine.HandleOddsChanged(ctx, ev))
	second, err := w.store.GetOutcome(ctx, domain.OutcomeEntityID(condID, "1"))
	require.NoError(t, err)

	assert.Equal(t, first.RawCurrentOdds.String(), second.RawCurrentOdds.String())
	assert.Equal(t, first.Fund.String(), second.Fund.String())
}

func TestMarginChangedKeepsOdds(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	condID := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	before, err := w.store.GetOutcome(ctx, domain.OutcomeEntityID(condID, "1"))
	require.NoError(t, err)

	require.NoError(t, w.engine.HandleMarginChanged(ctx, &domain.MarginChangedEvent{
		Meta:        evMeta(coreAddress, 22, ts0+22, 0),
		ConditionID: big.NewInt(100),
		NewMargin:   big.NewInt(0),
	}))

	cond, err := w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, "0", cond.Margin.String())

	// The margin is a plain field replace; outcomes keep their stored
	// odds until the next funds-changing event.
	after, err := w.store.GetOutcome(ctx, domain.OutcomeEntityID(condID, "1"))
	require.NoError(t, err)
	assert.Equal(t, before.RawCurrentOdds.String(), after.RawCurrentOdds.String())
}

func TestConditionStoppedMovesBetweenSets(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	condID := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)

	require.NoError(t, w.engine.HandleConditionStopped(ctx, &domain.ConditionStoppedEvent{
		Meta:        evMeta(coreAddress, 23, ts0+23, 0),
		ConditionID: big.NewInt(100),
		Flag:        true,
	}))

	cond, err := w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionStatusPaused, cond.Status)

	game, err := w.store.GetGame(ctx, cond.GameID)
	require.NoError(t, err)
	assert.Empty(t, game.ActiveConditionIDs)
	assert.Equal(t, []string{condID}, game.PausedConditionIDs)
	assert.False(t, game.HasActiveConditions)
	assert.Equal(t, domain.GameStatusPaused, game.Status)

	require.NoError(t, w.engine.HandleConditionStopped(ctx, &domain.ConditionStoppedEvent{
		Meta:        evMeta(coreAddress, 24, ts0+24, 0),
		ConditionID: big.NewInt(100),
		Flag:        false,
	}))

	cond, err = w.store.GetCondition(ctx, condID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionStatusCreated, cond.Status)

	game, err = w.store.GetGame(ctx, cond.GameID)
	require.NoError(t, err)
	assert.Equal(t, []string{condID}, game.ActiveConditionIDs)
	assert.Empty(t, game.PausedConditionIDs)
	assert.True(t, game.HasActiveConditions)
	assert.Equal(t, domain.GameStatusCreated, game.Status)
}

func TestConditionStoppedPausesGameOnlyWhenLastActive(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	w.createCondition(t, 101, 1, goldenFunds(), 75_000_000_000, 1)

	require.NoError(t, w.engine.HandleConditionStopped(ctx, &domain.ConditionStoppedEvent{
		Meta:        evMeta(coreAddress, 23, ts0+23, 0),
		ConditionID: big.NewInt(100),
		Flag:        true,
	}))

	game, err := w.store.GetGame(ctx, domain.GameEntityID(lpAddress, "1"))
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusCreated, game.Status)
	assert.True(t, game.HasActiveConditions)

	require.NoError(t, w.engine.HandleConditionStopped(ctx, &domain.ConditionStoppedEvent{
		Meta:        evMeta(coreAddress, 24, ts0+24, 0),
		ConditionID: big.NewInt(101),
		Flag:        true,
	}))

	game, err = w.store.GetGame(ctx, domain.GameEntityID(lpAddress, "1"))
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusPaused, game.Status)
	assert.False(t, game.HasActiveConditions)
}

func TestHandlerAbandonsOnMissingCondition(t *testing.T) {
	w := newWorld(t)
	err := w.engine.HandleOddsChanged(context.Background(), &domain.OddsChangedEvent{
		Meta:        evMeta(coreAddress, 21, ts0+21, 0),
		ConditionID: big.NewInt(404),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
