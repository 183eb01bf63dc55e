package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/odds"
)

// HandleConditionCreated materializes a condition and its outcomes. The
// contract is read back for margin, reinforcement, virtual funds and the
// winning-outcomes count, and the initial odds are computed before anything
// is persisted, so a numeric failure leaves no partial condition behind.
func (e *Engine) HandleConditionCreated(ctx context.Context, ev *domain.ConditionCreatedEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	gameID := domain.GameEntityID(core.LiquidityPoolID, ev.GameID.String())
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("engine: condition %s: game %s: %w", ev.ConditionID, gameID, err)
	}

	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	if _, err := e.store.GetCondition(ctx, condID); err == nil {
		return fmt.Errorf("engine: condition %s: %w", condID, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	state, err := e.readers.Condition.GetCondition(ctx, core.Address, ev.ConditionID)
	if err != nil {
		return fmt.Errorf("engine: condition %s: contract read: %w", condID, err)
	}
	if len(state.VirtualFunds) != len(ev.OutcomeIDs) {
		return fmt.Errorf("engine: condition %s: %d funds for %d outcomes", condID, len(state.VirtualFunds), len(ev.OutcomeIDs))
	}

	vals, err := odds.Compute(core.Version, state.VirtualFunds, state.Margin, state.WinningOutcomesCount)
	if err != nil {
		e.metrics.OddsFailed(string(core.Version))
		return fmt.Errorf("engine: condition %s: %w", condID, err)
	}

	ts := ev.Meta.Block.Timestamp
	cond := &domain.Condition{
		ID:                    condID,
		CoreAddress:           core.Address,
		ConditionID:           ev.ConditionID,
		GameID:                game.ID,
		Status:                domain.ConditionStatusCreated,
		Margin:                state.Margin,
		Reinforcement:         state.Reinforcement,
		WinningOutcomesCount:  state.WinningOutcomesCount,
		IsExpressForbidden:    state.IsExpressForbidden,
		Turnover:              new(big.Int),
		Provider:              game.Provider,
		OutcomeIDs:            ev.OutcomeIDs,
		CreatedTxHash:         ev.Meta.TxHash,
		CreatedBlockNumber:    ev.Meta.Block.Number,
		CreatedBlockTimestamp: ts,
		UpdatedAt:             ts,
	}
	if ev.StartsAt > 0 {
		cond.InternalStartsAt = big.NewInt(ev.StartsAt)
	}
	if err := e.store.PutCondition(ctx, cond); err != nil {
		return err
	}

	decimals := core.Version.OddsDecimals()
	for i, outcomeID := range ev.OutcomeIDs {
		out := &domain.Outcome{
			ID:             domain.OutcomeEntityID(condID, outcomeID.String()),
			CoreAddress:    core.Address,
			OutcomeID:      outcomeID,
			ConditionID:    condID,
			SortOrder:      i,
			Fund:           state.VirtualFunds[i],
			RawCurrentOdds: vals[i],
			CurrentOdds:    domain.ToDecimal(vals[i], decimals),
			UpdatedAt:      ts,
		}
		if err := e.store.PutOutcome(ctx, out); err != nil {
			return err
		}
		e.cacheOutcome(ctx, out)
	}

	wasActive := game.HasActiveConditions
	game.ActiveConditionIDs = appendUnique(game.ActiveConditionIDs, condID)
	game.HasActiveConditions = true
	game.Status = domain.GameStatusCreated
	game.UpdatedAt = ts
	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}
	if !wasActive {
		if err := e.activateGame(ctx, game); err != nil {
			return err
		}
	}

	return e.audit(ctx, ev.Meta, "ConditionCreated", "conditionId", ev.ConditionID.String())
}

// HandleOddsChanged re-reads the condition's virtual funds from the contract
// and refreshes every outcome's odds. Replaying with unchanged funds yields
// the same odds values.
func (e *Engine) HandleOddsChanged(ctx context.Context, ev *domain.OddsChangedEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	cond, err := e.store.GetCondition(ctx, condID)
	if err != nil {
		return fmt.Errorf("engine: odds changed: condition %s: %w", condID, err)
	}
	state, err := e.readers.Condition.GetCondition(ctx, core.Address, ev.ConditionID)
	if err != nil {
		return fmt.Errorf("engine: odds changed: condition %s: contract read: %w", condID, err)
	}
	if err := e.refreshOutcomeOdds(ctx, cond, core.Version, state.VirtualFunds, ev.Meta.Block.Timestamp); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "OddsChanged", "conditionId", ev.ConditionID.String())
}

// HandleMarginChanged replaces the stored margin. Odds are not recomputed
// here; the new margin takes effect on the next funds-changing event.
func (e *Engine) HandleMarginChanged(ctx context.Context, ev *domain.MarginChangedEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	cond, err := e.store.GetCondition(ctx, condID)
	if err != nil {
		return fmt.Errorf("engine: margin changed: condition %s: %w", condID, err)
	}
	cond.Margin = ev.NewMargin
	cond.UpdatedAt = ev.Meta.Block.Timestamp
	if err := e.store.PutCondition(ctx, cond); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "MarginChanged", "conditionId", ev.ConditionID.String())
}

// HandleReinforcementChanged is a plain field update; reinforcement does not
// enter the odds model.
func (e *Engine) HandleReinforcementChanged(ctx context.Context, ev *domain.ReinforcementChangedEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	cond, err := e.store.GetCondition(ctx, condID)
	if err != nil {
		return fmt.Errorf("engine: reinforcement changed: condition %s: %w", condID, err)
	}
	cond.Reinforcement = ev.NewReinforcement
	cond.UpdatedAt = ev.Meta.Block.Timestamp
	if err := e.store.PutCondition(ctx, cond); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "ReinforcementChanged", "conditionId", ev.ConditionID.String())
}

// HandleConditionStopped pauses or unpauses a condition, moving it between
// the owning game's active and paused sets.
func (e *Engine) HandleConditionStopped(ctx context.Context, ev *domain.ConditionStoppedEvent) error {
	core, err := e.core(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	condID := domain.ConditionEntityID(core.Address, ev.ConditionID.String())
	cond, err := e.store.GetCondition(ctx, condID)
	if err != nil {
		return fmt.Errorf("engine: condition stopped: condition %s: %w", condID, err)
	}
	game, err := e.store.GetGame(ctx, cond.GameID)
	if err != nil {
		return fmt.Errorf("engine: condition stopped: game %s: %w", cond.GameID, err)
	}

	ts := ev.Meta.Block.Timestamp
	if ev.Flag {
		cond.Status = domain.ConditionStatusPaused
		game.ActiveConditionIDs = remove(game.ActiveConditionIDs, condID)
		game.PausedConditionIDs = appendUnique(game.PausedConditionIDs, condID)
		// The game only pauses while still upcoming and once its last
		// active condition is gone.
		if game.Status == domain.GameStatusCreated && len(game.ActiveConditionIDs) == 0 {
			game.HasActiveConditions = false
			game.Status = domain.GameStatusPaused
		}
	} else {
		cond.Status = domain.ConditionStatusCreated
		game.PausedConditionIDs = remove(game.PausedConditionIDs, condID)
		game.ActiveConditionIDs = appendUnique(game.ActiveConditionIDs, condID)
		if game.Status == domain.GameStatusPaused {
			game.HasActiveConditions = true
			game.Status = domain.GameStatusCreated
		}
	}
	game.UpdatedAt = ts
	cond.UpdatedAt = ts

	if err := e.store.PutCondition(ctx, cond); err != nil {
		return err
	}
	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "ConditionStopped", "conditionId", ev.ConditionID.String())
}

// refreshOutcomeOdds recomputes and persists every outcome's fund and odds.
// Fails (without touching any outcome) when the odds model rejects the input.
func (e *Engine) refreshOutcomeOdds(ctx context.Context, cond *domain.Condition, version domain.ProtocolVersion, funds []*big.Int, ts int64) error {
	if len(funds) != len(cond.OutcomeIDs) {
		return fmt.Errorf("engine: condition %s: %d funds for %d outcomes", cond.ID, len(funds), len(cond.OutcomeIDs))
	}
	vals, err := odds.Compute(version, funds, cond.Margin, cond.WinningOutcomesCount)
	if err != nil {
		e.metrics.OddsFailed(string(version))
		return fmt.Errorf("engine: condition %s: %w", cond.ID, err)
	}
	decimals := version.OddsDecimals()
	for i, outcomeID := range cond.OutcomeIDs {
		out, err := e.store.GetOutcome(ctx, domain.OutcomeEntityID(cond.ID, outcomeID.String()))
		if err != nil {
			return fmt.Errorf("engine: condition %s: outcome %s: %w", cond.ID, outcomeID, err)
		}
		out.Fund = funds[i]
		out.RawCurrentOdds = vals[i]
		out.CurrentOdds = domain.ToDecimal(vals[i], decimals)
		out.UpdatedAt = ts
		if err := e.store.PutOutcome(ctx, out); err != nil {
			return err
		}
		e.cacheOutcome(ctx, out)
	}
	return nil
}

func appendUnique(xs []string, v string) []string {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}

func remove(xs []string, v string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
