package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// HandleNewBet records a single-leg bet. Turnover is propagated up the
// condition, game, league and country aggregates before the bet itself is
// built; that ordering matches the source contract's accounting and is kept
// deliberately.
func (e *Engine) HandleNewBet(ctx context.Context, ev *domain.NewBetEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	cond, err := e.store.GetCondition(ctx, condID)
	if err != nil {
		return fmt.Errorf("engine: new bet: condition %s: %w", condID, err)
	}
	game, err := e.store.GetGame(ctx, cond.GameID)
	if err != nil {
		return fmt.Errorf("engine: new bet: game %s: %w", cond.GameID, err)
	}
	league, err := e.store.GetLeague(ctx, game.LeagueID)
	if err != nil {
		return fmt.Errorf("engine: new bet: league %s: %w", game.LeagueID, err)
	}
	country, err := e.store.GetCountry(ctx, league.CountryID)
	if err != nil {
		return fmt.Errorf("engine: new bet: country %s: %w", league.CountryID, err)
	}
	pool, err := e.pool(ctx, core.LiquidityPoolID)
	if err != nil {
		return err
	}
	outcomeEntityID := domain.OutcomeEntityID(condID, ev.OutcomeID.String())
	out, err := e.store.GetOutcome(ctx, outcomeEntityID)
	if err != nil {
		return fmt.Errorf("engine: new bet: outcome %s: %w", outcomeEntityID, err)
	}

	ts := ev.Meta.Block.Timestamp

	cond.Turnover = new(big.Int).Add(cond.Turnover, ev.Amount)
	cond.UpdatedAt = ts
	if err := e.store.PutCondition(ctx, cond); err != nil {
		return err
	}
	game.Turnover = new(big.Int).Add(game.Turnover, ev.Amount)
	game.UpdatedAt = ts
	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}
	league.Turnover = new(big.Int).Add(league.Turnover, ev.Amount)
	if err := e.store.PutLeague(ctx, league); err != nil {
		return err
	}
	country.Turnover = new(big.Int).Add(country.Turnover, ev.Amount)
	if err := e.store.PutCountry(ctx, country); err != nil {
		return err
	}

	betEntityID := domain.BetEntityID(core.Address, ev.TokenID.String())
	oddsDecimals := core.Version.OddsDecimals()
	potential := new(big.Int).Mul(ev.Amount, ev.Odds)
	potential.Quo(potential, core.Version.Multiplier())

	bet := &domain.Bet{
		ID:                    betEntityID,
		Type:                  domain.BetTypeOrdinar,
		BetID:                 ev.TokenID,
		CoreAddress:           core.Address,
		Bettor:                ev.Bettor,
		Owner:                 ev.Bettor,
		Actor:                 ev.Bettor,
		Affiliate:             ev.Affiliate,
		RawAmount:             ev.Amount,
		Amount:                domain.ToDecimal(ev.Amount, pool.TokenDecimals),
		TokenDecimals:         pool.TokenDecimals,
		RawOdds:               ev.Odds,
		Odds:                  domain.ToDecimal(ev.Odds, oddsDecimals),
		OddsDecimals:          oddsDecimals,
		RawPotentialPayout:    potential,
		PotentialPayout:       domain.ToDecimal(potential, pool.TokenDecimals),
		SubBetsCount:          1,
		ConditionEntityIDs:    []string{cond.ID},
		GameEntityIDs:         []string{game.ID},
		ConditionIDs:          []*big.Int{ev.ConditionID},
		Status:                domain.BetStatusAccepted,
		CreatedTxHash:         ev.Meta.TxHash,
		CreatedBlockNumber:    ev.Meta.Block.Number,
		CreatedBlockTimestamp: ts,
		UpdatedAt:             ts,
	}

	out.BetIDs = append(out.BetIDs, betEntityID)
	out.UpdatedAt = ts
	if err := e.store.PutOutcome(ctx, out); err != nil {
		return err
	}

	// The core reports post-stake virtual funds on single bets; reprice all
	// sibling outcomes from them.
	if len(ev.Funds) > 0 {
		if err := e.refreshOutcomeOdds(ctx, cond, core.Version, ev.Funds, ts); err != nil {
			return err
		}
	}

	sel := &domain.Selection{
		ID:              domain.SelectionEntityID(betEntityID, ev.ConditionID.String()),
		BetID:           betEntityID,
		OutcomeEntityID: out.ID,
		OutcomeID:       ev.OutcomeID,
		RawOdds:         ev.Odds,
		Odds:            domain.ToDecimal(ev.Odds, oddsDecimals),
		OddsDecimals:    oddsDecimals,
	}
	if err := e.store.PutBet(ctx, bet); err != nil {
		return err
	}
	if err := e.store.PutSelection(ctx, sel); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "NewBet", "betId", ev.TokenID.String())
}

// HandleNewExpressBet records a multi-leg bet. Every leg is validated before
// the first save; express stakes do not enter condition turnover.
func (e *Engine) HandleNewExpressBet(ctx context.Context, ev *domain.NewExpressBetEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	prematch := core.PrematchAddress
	if prematch == "" {
		prematch = core.Address
	}
	pool, err := e.pool(ctx, core.LiquidityPoolID)
	if err != nil {
		return err
	}

	ts := ev.Meta.Block.Timestamp
	betEntityID := domain.BetEntityID(core.Address, ev.BetID.String())
	oddsDecimals := core.Version.OddsDecimals()
	potential := new(big.Int).Mul(ev.Amount, ev.Odds)
	potential.Quo(potential, core.Version.Multiplier())

	bet := &domain.Bet{
		ID:                    betEntityID,
		Type:                  domain.BetTypeExpress,
		BetID:                 ev.BetID,
		CoreAddress:           core.Address,
		Bettor:                ev.Bettor,
		Owner:                 ev.Bettor,
		Actor:                 ev.Bettor,
		Affiliate:             ev.Affiliate,
		RawAmount:             ev.Amount,
		Amount:                domain.ToDecimal(ev.Amount, pool.TokenDecimals),
		TokenDecimals:         pool.TokenDecimals,
		RawOdds:               ev.Odds,
		Odds:                  domain.ToDecimal(ev.Odds, oddsDecimals),
		OddsDecimals:          oddsDecimals,
		RawPotentialPayout:    potential,
		PotentialPayout:       domain.ToDecimal(potential, pool.TokenDecimals),
		SubBetsCount:          len(ev.SubBets),
		Status:                domain.BetStatusAccepted,
		CreatedTxHash:         ev.Meta.TxHash,
		CreatedBlockNumber:    ev.Meta.Block.Number,
		CreatedBlockTimestamp: ts,
		UpdatedAt:             ts,
	}

	outcomes := make([]*domain.Outcome, 0, len(ev.SubBets))
	selections := make([]*domain.Selection, 0, len(ev.SubBets))
	for _, sub := range ev.SubBets {
		condID := domain.ConditionEntityID(prematch, sub.ConditionID.String())
		cond, err := e.store.GetCondition(ctx, condID)
		if err != nil {
			return fmt.Errorf("engine: express bet %s: condition %s: %w", betEntityID, condID, err)
		}
		outcomeEntityID := domain.OutcomeEntityID(condID, sub.OutcomeID.String())
		out, err := e.store.GetOutcome(ctx, outcomeEntityID)
		if err != nil {
			return fmt.Errorf("engine: express bet %s: outcome %s: %w", betEntityID, outcomeEntityID, err)
		}
		out.BetIDs = append(out.BetIDs, betEntityID)
		out.UpdatedAt = ts
		outcomes = append(outcomes, out)
		selections = append(selections, &domain.Selection{
			ID:              domain.SelectionEntityID(betEntityID, sub.ConditionID.String()),
			BetID:           betEntityID,
			OutcomeEntityID: out.ID,
			OutcomeID:       sub.OutcomeID,
			RawOdds:         sub.Odds,
			Odds:            domain.ToDecimal(sub.Odds, oddsDecimals),
			OddsDecimals:    oddsDecimals,
		})
		bet.ConditionEntityIDs = append(bet.ConditionEntityIDs, cond.ID)
		bet.ConditionIDs = append(bet.ConditionIDs, sub.ConditionID)
		bet.GameEntityIDs = appendUnique(bet.GameEntityIDs, cond.GameID)
	}

	if err := e.store.PutBet(ctx, bet); err != nil {
		return err
	}
	for i := range outcomes {
		if err := e.store.PutOutcome(ctx, outcomes[i]); err != nil {
			return err
		}
		if err := e.store.PutSelection(ctx, selections[i]); err != nil {
			return err
		}
	}
	return e.audit(ctx, ev.Meta, "NewExpressBet", "betId", ev.BetID.String())
}

// HandleBettorWin marks a settled bet as redeemed with its realized payout.
func (e *Engine) HandleBettorWin(ctx context.Context, ev *domain.BettorWinEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	betEntityID := domain.BetEntityID(core.Address, ev.TokenID.String())
	bet, err := e.store.GetBet(ctx, betEntityID)
	if err != nil {
		return fmt.Errorf("engine: bettor win: bet %s: %w", betEntityID, err)
	}

	ts := ev.Meta.Block.Timestamp
	bet.IsRedeemed = true
	bet.IsRedeemable = false
	bet.RawPayout = ev.Amount
	bet.Payout = domain.ToDecimal(ev.Amount, bet.TokenDecimals)
	bet.RedeemedTxHash = ev.Meta.TxHash
	bet.RedeemedBlockNumber = ev.Meta.Block.Number
	bet.RedeemedBlockTimestamp = ts
	bet.UpdatedAt = ts

	if err := e.store.PutBet(ctx, bet); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "BettorWin", "betId", ev.TokenID.String())
}

// HandleBetTransfer moves bet NFT ownership. Mints and burns are skipped;
// the actor follows the owner except on freebet-funded bets, where it tracks
// the freebet owner instead.
func (e *Engine) HandleBetTransfer(ctx context.Context, ev *domain.BetTransferEvent) error {
	if ev.From == domain.ZeroAddress || ev.To == domain.ZeroAddress {
		return nil
	}
	address := ev.CoreAddress
	if address == "" {
		address = ev.BetTokenAddress
	}
	core, err := e.core(ctx, address)
	if err != nil {
		return err
	}
	betEntityID := domain.BetEntityID(core.Address, ev.TokenID.String())
	bet, err := e.store.GetBet(ctx, betEntityID)
	if err != nil {
		return fmt.Errorf("engine: bet transfer: bet %s: %w", betEntityID, err)
	}

	bet.Owner = ev.To
	if !bet.IsFreebet {
		bet.Actor = ev.To
	}
	bet.UpdatedAt = ev.Meta.Block.Timestamp

	if err := e.store.PutBet(ctx, bet); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "BetTransfer", "betId", ev.TokenID.String())
}

// linkFreebet rewires a just-funded bet to its freebet grant: the grant
// owner becomes both bettor and actor.
func (e *Engine) linkFreebet(ctx context.Context, fb *domain.Freebet, ts int64) error {
	betEntityID := domain.BetEntityID(fb.CoreAddress, fb.BetID.String())
	bet, err := e.store.GetBet(ctx, betEntityID)
	if err != nil {
		return fmt.Errorf("engine: link freebet %s: bet %s: %w", fb.ID, betEntityID, err)
	}
	bet.IsFreebet = true
	bet.FreebetID = fb.ID
	bet.Bettor = fb.Owner
	bet.Actor = fb.Owner
	bet.UpdatedAt = ts
	return e.store.PutBet(ctx, bet)
}
