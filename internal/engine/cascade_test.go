package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/betcore/internal/domain"
)

func deltaFixtures() (*domain.Game, *domain.League, *domain.Country) {
	game := &domain.Game{
		ID:                  "lp_1",
		LeagueID:            "33_england_premier-league",
		Status:              domain.GameStatusCreated,
		HasActiveConditions: true,
		ActiveConditionIDs:  []string{"core_100"},
		Turnover:            big.NewInt(0),
	}
	league := &domain.League{
		ID:             game.LeagueID,
		HasActiveGames: true,
		ActiveGameIDs:  []string{game.ID},
		Turnover:       big.NewInt(0),
		CountryID:      "33_England",
	}
	country := &domain.Country{
		ID:               league.CountryID,
		HasActiveLeagues: true,
		ActiveLeagueIDs:  []string{league.ID},
		Turnover:         big.NewInt(0),
	}
	return game, league, country
}

func TestComputeResolutionDeltaLastCondition(t *testing.T) {
	game, league, country := deltaFixtures()

	d := computeResolutionDelta(game, league, country, "core_100", false)
	assert.Equal(t, domain.GameStatusResolved, d.GameStatus)
	assert.False(t, d.GameHasActive)
	assert.True(t, d.RemoveGameFromLeague)
	assert.False(t, d.LeagueHasActive)
	assert.True(t, d.RemoveLeagueFromCountry)
	assert.False(t, d.CountryHasActive)
}

func TestComputeResolutionDeltaCanceledOnly(t *testing.T) {
	game, league, country := deltaFixtures()

	d := computeResolutionDelta(game, league, country, "core_100", true)
	assert.Equal(t, domain.GameStatusCanceled, d.GameStatus)
	assert.True(t, d.RemoveGameFromLeague)
}

func TestComputeResolutionDeltaResolvedWinsOverCanceled(t *testing.T) {
	game, league, country := deltaFixtures()
	game.ResolvedConditionIDs = []string{"core_99"}

	d := computeResolutionDelta(game, league, country, "core_100", true)
	assert.Equal(t, domain.GameStatusResolved, d.GameStatus)
}

func TestComputeResolutionDeltaPausedBlocksTerminalStatus(t *testing.T) {
	game, league, country := deltaFixtures()
	game.PausedConditionIDs = []string{"core_101"}

	d := computeResolutionDelta(game, league, country, "core_100", false)
	assert.Equal(t, domain.GameStatusCreated, d.GameStatus)
	assert.False(t, d.GameHasActive)
	assert.True(t, d.RemoveGameFromLeague)
}

func TestComputeResolutionDeltaOtherActiveRemains(t *testing.T) {
	game, league, country := deltaFixtures()
	game.ActiveConditionIDs = []string{"core_100", "core_101"}

	d := computeResolutionDelta(game, league, country, "core_100", false)
	assert.Equal(t, domain.GameStatusCreated, d.GameStatus)
	assert.True(t, d.GameHasActive)
	assert.False(t, d.RemoveGameFromLeague)
	assert.True(t, d.LeagueHasActive)
	assert.True(t, d.CountryHasActive)
}

func TestComputeResolutionDeltaOtherGamesKeepLeagueActive(t *testing.T) {
	game, league, country := deltaFixtures()
	league.ActiveGameIDs = []string{game.ID, "lp_2"}

	d := computeResolutionDelta(game, league, country, "core_100", false)
	assert.True(t, d.RemoveGameFromLeague)
	assert.True(t, d.LeagueHasActive)
	assert.False(t, d.RemoveLeagueFromCountry)
	assert.True(t, d.CountryHasActive)
}

// The four condition sets stay pairwise disjoint through a full lifecycle.
func TestConditionSetsStayDisjoint(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.createGame(t, 1)
	c1 := w.createCondition(t, 100, 1, goldenFunds(), 75_000_000_000, 1)
	c2 := w.createCondition(t, 101, 1, goldenFunds(), 75_000_000_000, 1)
	c3 := w.createCondition(t, 102, 1, goldenFunds(), 75_000_000_000, 1)

	pause := &domain.ConditionStoppedEvent{
		Meta:        evMeta(coreAddress, 23, ts0+23, 0),
		ConditionID: big.NewInt(101),
		Flag:        true,
	}
	assert.NoError(t, w.engine.HandleConditionStopped(ctx, pause))

	w.resolveCondition(t, 100, []*big.Int{big.NewInt(1)}, 40, ts0+40)
	w.resolveCondition(t, 102, nil, 41, ts0+41)

	game, err := w.store.GetGame(ctx, domain.GameEntityID(lpAddress, "1"))
	assert.NoError(t, err)

	sets := [][]string{
		game.ActiveConditionIDs,
		game.PausedConditionIDs,
		game.ResolvedConditionIDs,
		game.CanceledConditionIDs,
	}
	seen := map[string]int{}
	total := 0
	for _, set := range sets {
		for _, id := range set {
			seen[id]++
			total++
		}
	}
	assert.Equal(t, 3, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "condition %s appears in %d sets", id, n)
	}
	assert.Contains(t, game.PausedConditionIDs, c2)
	assert.Contains(t, game.ResolvedConditionIDs, c1)
	assert.Contains(t, game.CanceledConditionIDs, c3)
}
