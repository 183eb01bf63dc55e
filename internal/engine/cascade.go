package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// HandleConditionResolved settles a condition and everything hanging off it:
// every referencing bet's leg on this condition, the whole-bet finalization
// when its last leg lands, the game/league/country active sets and turnover,
// and finally the pool accounting. An empty winning set (or a lone zero)
// cancels the condition instead of resolving it.
func (e *Engine) HandleConditionResolved(ctx context.Context, ev *domain.ConditionResolvedEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	cond, err := e.store.GetCondition(ctx, condID)
	if err != nil {
		return fmt.Errorf("engine: condition resolved: condition %s: %w", condID, err)
	}

	isCanceled := len(ev.WinningOutcomes) == 0 ||
		(len(ev.WinningOutcomes) == 1 && ev.WinningOutcomes[0].Sign() == 0)

	ts := ev.Meta.Block.Timestamp
	if isCanceled {
		cond.Status = domain.ConditionStatusCanceled
	} else {
		cond.Status = domain.ConditionStatusResolved
		cond.WonOutcomeIDs = ev.WinningOutcomes
	}
	cond.ResolvedTxHash = ev.Meta.TxHash
	cond.ResolvedBlockNumber = ev.Meta.Block.Number
	cond.ResolvedBlockTimestamp = ts
	cond.UpdatedAt = ts
	if err := e.store.PutCondition(ctx, cond); err != nil {
		return err
	}

	betsAmount, wonBetsAmount, err := e.settleConditionBets(ctx, cond, ev.WinningOutcomes, isCanceled, ev.Meta)
	if err != nil {
		return err
	}

	if err := e.applyResolutionToHierarchy(ctx, cond, isCanceled, ts); err != nil {
		return err
	}

	if err := e.countConditionResolved(ctx, core.LiquidityPoolID, betsAmount, wonBetsAmount, ev.Meta.Block); err != nil {
		return err
	}

	return e.audit(ctx, ev.Meta, "ConditionResolved", "conditionId", ev.ConditionID.String())
}

// settleConditionBets walks every bet referencing any outcome of the
// condition, advances its leg counters and finalizes it if this was its last
// open leg. Missing selections or bets are logged and skipped; they must not
// block settlement of the remaining bets.
func (e *Engine) settleConditionBets(ctx context.Context, cond *domain.Condition, winning []*big.Int, isCanceled bool, meta domain.EventMeta) (betsAmount, wonBetsAmount *big.Int, err error) {
	won := make(map[string]bool, len(winning))
	for _, w := range winning {
		won[w.String()] = true
	}

	betsAmount = new(big.Int)
	wonBetsAmount = new(big.Int)

	for _, outcomeID := range cond.OutcomeIDs {
		out, err := e.store.GetOutcome(ctx, domain.OutcomeEntityID(cond.ID, outcomeID.String()))
		if err != nil {
			e.log.Warn("settlement: outcome missing", "condition", cond.ID, "outcome", outcomeID.String(), "err", err)
			continue
		}
		for _, betEntityID := range out.BetIDs {
			sel, err := e.store.GetSelection(ctx, domain.SelectionEntityID(betEntityID, cond.ConditionID.String()))
			if err != nil {
				e.log.Warn("settlement: selection missing", "bet", betEntityID, "condition", cond.ID, "err", err)
				continue
			}
			bet, err := e.store.GetBet(ctx, betEntityID)
			if err != nil {
				e.log.Warn("settlement: bet missing", "bet", betEntityID, "err", err)
				continue
			}

			betsAmount.Add(betsAmount, bet.RawAmount)

			switch {
			case isCanceled:
				// The selection keeps no result on a canceled condition.
				bet.CanceledSubBetsCount++
			case won[out.OutcomeID.String()]:
				sel.Result = domain.SelectionResultWon
				bet.WonSubBetsCount++
			default:
				sel.Result = domain.SelectionResultLost
				bet.LostSubBetsCount++
			}
			if !isCanceled {
				if err := e.store.PutSelection(ctx, sel); err != nil {
					return nil, nil, err
				}
			}

			if bet.WonSubBetsCount+bet.LostSubBetsCount+bet.CanceledSubBetsCount == bet.SubBetsCount {
				payout, err := e.finalizeBet(ctx, bet, meta)
				if err != nil {
					return nil, nil, err
				}
				wonBetsAmount.Add(wonBetsAmount, payout)
			}

			bet.UpdatedAt = meta.Block.Timestamp
			if err := e.store.PutBet(ctx, bet); err != nil {
				return nil, nil, err
			}
		}
	}
	return betsAmount, wonBetsAmount, nil
}

// finalizeBet settles a bet whose last leg just landed. It returns the
// payout attributable to won bets (zero for lost and refunded bets) for pool
// accounting. Any lost leg loses the whole bet; otherwise any won leg wins
// it; a bet whose every leg was canceled is refunded its stake.
func (e *Engine) finalizeBet(ctx context.Context, bet *domain.Bet, meta domain.EventMeta) (*big.Int, error) {
	ts := meta.Block.Timestamp
	settledOdds := bet.RawOdds
	payout := new(big.Int)
	poolPayout := new(big.Int)

	switch {
	case bet.LostSubBetsCount > 0:
		bet.Result = domain.BetResultLost
		bet.Status = domain.BetStatusResolved
	case bet.WonSubBetsCount > 0:
		bet.Result = domain.BetResultWon
		bet.Status = domain.BetStatusResolved
		bet.IsRedeemable = true
		if bet.Type == domain.BetTypeOrdinar {
			payout = bet.RawPotentialPayout
		} else if amt, ok := e.readers.Payout.CalcPayout(ctx, bet.CoreAddress, bet.BetID); ok {
			payout = amt
			so := new(big.Int).Mul(amt, pow10(bet.OddsDecimals))
			settledOdds = so.Quo(so, bet.RawAmount)
		} else {
			// Oracle revert degrades to a zero payout, never an abort.
			e.log.Warn("settlement: payout oracle failed", "bet", bet.ID)
		}
		poolPayout = payout
	default:
		bet.Status = domain.BetStatusCanceled
		bet.IsRedeemable = true
		payout = bet.RawAmount
	}

	bet.RawPayout = payout
	bet.Payout = domain.ToDecimal(payout, bet.TokenDecimals)
	bet.RawSettledOdds = settledOdds
	bet.SettledOdds = domain.ToDecimal(settledOdds, bet.OddsDecimals)
	bet.ApproxSettledAt = ts
	bet.ResolvedTxHash = meta.TxHash
	bet.ResolvedBlockNumber = meta.Block.Number
	bet.ResolvedBlockTimestamp = ts
	bet.UpdatedAt = ts

	e.metrics.BetSettled(string(bet.Status) + "/" + string(bet.Result))
	if err := e.audit(ctx, meta, "BetSettled", "betId", bigString(bet.BetID)); err != nil {
		return nil, err
	}
	return poolPayout, nil
}

// resolutionDelta is the hierarchy bookkeeping of one condition leaving the
// live set, computed without touching storage so it can be tested on plain
// snapshots.
type resolutionDelta struct {
	GameStatus              domain.GameStatus
	GameHasActive           bool
	RemoveGameFromLeague    bool
	LeagueHasActive         bool
	RemoveLeagueFromCountry bool
	CountryHasActive        bool
}

func computeResolutionDelta(game *domain.Game, league *domain.League, country *domain.Country, condEntityID string, canceled bool) resolutionDelta {
	active := remove(game.ActiveConditionIDs, condEntityID)
	paused := remove(game.PausedConditionIDs, condEntityID)
	resolved := len(game.ResolvedConditionIDs)
	canceledCount := len(game.CanceledConditionIDs)
	if canceled {
		canceledCount++
	} else {
		resolved++
	}

	d := resolutionDelta{
		GameStatus:       game.Status,
		GameHasActive:    len(active) > 0,
		LeagueHasActive:  league.HasActiveGames,
		CountryHasActive: country.HasActiveLeagues,
	}
	if len(active) > 0 {
		return d
	}

	switch {
	case resolved == 0 && len(paused) == 0 && canceledCount > 0:
		d.GameStatus = domain.GameStatusCanceled
	case resolved > 0 && len(paused) == 0:
		d.GameStatus = domain.GameStatusResolved
	}

	d.RemoveGameFromLeague = true
	leagueActive := remove(league.ActiveGameIDs, game.ID)
	d.LeagueHasActive = len(leagueActive) > 0
	if len(leagueActive) == 0 {
		d.RemoveLeagueFromCountry = true
		countryActive := remove(country.ActiveLeagueIDs, league.ID)
		d.CountryHasActive = len(countryActive) > 0
	}
	return d
}

// applyResolutionToHierarchy moves the condition into its terminal set and
// applies the computed delta plus the one-time turnover subtraction up the
// game, league and country aggregates.
func (e *Engine) applyResolutionToHierarchy(ctx context.Context, cond *domain.Condition, canceled bool, ts int64) error {
	game, err := e.store.GetGame(ctx, cond.GameID)
	if err != nil {
		return fmt.Errorf("engine: condition resolved: game %s: %w", cond.GameID, err)
	}
	league, err := e.store.GetLeague(ctx, game.LeagueID)
	if err != nil {
		return fmt.Errorf("engine: condition resolved: league %s: %w", game.LeagueID, err)
	}
	country, err := e.store.GetCountry(ctx, league.CountryID)
	if err != nil {
		return fmt.Errorf("engine: condition resolved: country %s: %w", league.CountryID, err)
	}

	d := computeResolutionDelta(game, league, country, cond.ID, canceled)

	game.ActiveConditionIDs = remove(game.ActiveConditionIDs, cond.ID)
	game.PausedConditionIDs = remove(game.PausedConditionIDs, cond.ID)
	if canceled {
		game.CanceledConditionIDs = appendUnique(game.CanceledConditionIDs, cond.ID)
	} else {
		game.ResolvedConditionIDs = appendUnique(game.ResolvedConditionIDs, cond.ID)
	}
	game.HasActiveConditions = d.GameHasActive
	game.Status = d.GameStatus
	game.Turnover = new(big.Int).Sub(game.Turnover, cond.Turnover)
	game.UpdatedAt = ts

	if d.RemoveGameFromLeague {
		league.ActiveGameIDs = remove(league.ActiveGameIDs, game.ID)
	}
	league.HasActiveGames = d.LeagueHasActive
	league.Turnover = new(big.Int).Sub(league.Turnover, cond.Turnover)

	if d.RemoveLeagueFromCountry {
		country.ActiveLeagueIDs = remove(country.ActiveLeagueIDs, league.ID)
	}
	country.HasActiveLeagues = d.CountryHasActive
	country.Turnover = new(big.Int).Sub(country.Turnover, cond.Turnover)

	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}
	if err := e.store.PutLeague(ctx, league); err != nil {
		return err
	}
	return e.store.PutCountry(ctx, country)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
