// Package pipeline feeds decoded contract events through the derivation
// engine in source order and archives the raw stream.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/engine"
	"github.com/alanyoungcy/betcore/internal/metrics"
)

// Dispatcher applies events strictly sequentially. Entity derivation is
// order-dependent, so there is exactly one processing goroutine; producers
// hand events over through a buffered channel.
type Dispatcher struct {
	engine   *engine.Engine
	archiver *Archiver
	metrics  *metrics.Metrics
	log      *slog.Logger
	events   chan any
}

// NewDispatcher creates a Dispatcher. archiver may be nil, metrics may be
// nil.
func NewDispatcher(eng *engine.Engine, archiver *Archiver, m *metrics.Metrics, log *slog.Logger, bufferSize int) *Dispatcher {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Dispatcher{
		engine:   eng,
		archiver: archiver,
		metrics:  m,
		log:      log.With("component", "dispatcher"),
		events:   make(chan any, bufferSize),
	}
}

// Submit queues one decoded event. It blocks when the buffer is full so
// producers cannot outrun the single processing goroutine unboundedly.
func (d *Dispatcher) Submit(ctx context.Context, ev any) error {
	select {
	case d.events <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pipeline: submit: %w", domain.ErrContextDone)
	}
}

// QueueLen reports how many submitted events are still waiting. Producers
// use it to drain the queue before initiating shutdown.
func (d *Dispatcher) QueueLen() int {
	return len(d.events)
}

// Run consumes the queue until ctx is cancelled. A failed event is logged
// and counted but does not stop the loop: skipping is safer than blocking the
// stream, and the audit log localizes the resulting gap.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("dispatcher starting", "buffer", cap(d.events))

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped")
			return ctx.Err()
		case ev := <-d.events:
			name := EventName(ev)
			start := time.Now()

			if d.archiver != nil {
				d.archiver.Record(name, ev)
			}

			if err := d.Apply(ctx, ev); err != nil {
				d.metrics.EventFailed(name)
				d.log.Error("event handling failed", "event", name, "error", err)
				continue
			}
			d.metrics.EventHandled(name)
			d.metrics.ObserveHandleDuration(time.Since(start).Seconds())
		}
	}
}

// Apply routes one event to its engine handler. It is exported so dryrun
// mode can replay a fixture stream without the channel machinery.
func (d *Dispatcher) Apply(ctx context.Context, ev any) error {
	switch ev := ev.(type) {
	case *domain.GameCreatedEvent:
		return d.engine.HandleGameCreated(ctx, ev)
	case *domain.GameShiftedEvent:
		return d.engine.HandleGameShifted(ctx, ev)
	case *domain.GameCanceledEvent:
		return d.engine.HandleGameCanceled(ctx, ev)
	case *domain.ConditionCreatedEvent:
		return d.engine.HandleConditionCreated(ctx, ev)
	case *domain.OddsChangedEvent:
		return d.engine.HandleOddsChanged(ctx, ev)
	case *domain.MarginChangedEvent:
		return d.engine.HandleMarginChanged(ctx, ev)
	case *domain.ReinforcementChangedEvent:
		return d.engine.HandleReinforcementChanged(ctx, ev)
	case *domain.ConditionStoppedEvent:
		return d.engine.HandleConditionStopped(ctx, ev)
	case *domain.ConditionResolvedEvent:
		return d.engine.HandleConditionResolved(ctx, ev)
	case *domain.NewBetEvent:
		return d.engine.HandleNewBet(ctx, ev)
	case *domain.NewExpressBetEvent:
		return d.engine.HandleNewExpressBet(ctx, ev)
	case *domain.BettorWinEvent:
		return d.engine.HandleBettorWin(ctx, ev)
	case *domain.BetTransferEvent:
		return d.engine.HandleBetTransfer(ctx, ev)
	case *domain.FreebetMintedEvent:
		return d.engine.HandleFreebetMinted(ctx, ev)
	case *domain.FreebetReissuedEvent:
		return d.engine.HandleFreebetReissued(ctx, ev)
	case *domain.FreebetRedeemedEvent:
		return d.engine.HandleFreebetRedeemed(ctx, ev)
	case *domain.FreebetWithdrawnEvent:
		return d.engine.HandleFreebetWithdrawn(ctx, ev)
	case *domain.FreebetTransferEvent:
		return d.engine.HandleFreebetTransfer(ctx, ev)
	case *domain.FreebetResolvedEvent:
		return d.engine.HandleFreebetResolved(ctx, ev)
	case *domain.LiquidityDepositedEvent:
		return d.engine.HandleLiquidityDeposited(ctx, ev)
	case *domain.LiquidityWithdrawnEvent:
		return d.engine.HandleLiquidityWithdrawn(ctx, ev)
	case *domain.LiquidityTransferEvent:
		return d.engine.HandleLiquidityTransfer(ctx, ev)
	case *domain.WithdrawTimeoutChangedEvent:
		return d.engine.HandleWithdrawTimeoutChanged(ctx, ev)
	default:
		return fmt.Errorf("pipeline: unknown event type %T", ev)
	}
}

// EventName returns the audit/metrics label for one decoded event.
func EventName(ev any) string {
	switch ev.(type) {
	case *domain.GameCreatedEvent:
		return "GameCreated"
	case *domain.GameShiftedEvent:
		return "GameShifted"
	case *domain.GameCanceledEvent:
		return "GameCanceled"
	case *domain.ConditionCreatedEvent:
		return "ConditionCreated"
	case *domain.OddsChangedEvent:
		return "OddsChanged"
	case *domain.MarginChangedEvent:
		return "MarginChanged"
	case *domain.ReinforcementChangedEvent:
		return "ReinforcementChanged"
	case *domain.ConditionStoppedEvent:
		return "ConditionStopped"
	case *domain.ConditionResolvedEvent:
		return "ConditionResolved"
	case *domain.NewBetEvent:
		return "NewBet"
	case *domain.NewExpressBetEvent:
		return "NewExpressBet"
	case *domain.BettorWinEvent:
		return "BettorWin"
	case *domain.BetTransferEvent:
		return "BetTransfer"
	case *domain.FreebetMintedEvent:
		return "FreebetMinted"
	case *domain.FreebetReissuedEvent:
		return "FreebetReissued"
	case *domain.FreebetRedeemedEvent:
		return "FreebetRedeemed"
	case *domain.FreebetWithdrawnEvent:
		return "FreebetWithdrawn"
	case *domain.FreebetTransferEvent:
		return "FreebetTransfer"
	case *domain.FreebetResolvedEvent:
		return "FreebetResolved"
	case *domain.LiquidityDepositedEvent:
		return "LiquidityDeposited"
	case *domain.LiquidityWithdrawnEvent:
		return "LiquidityWithdrawn"
	case *domain.LiquidityTransferEvent:
		return "LiquidityTransfer"
	case *domain.WithdrawTimeoutChangedEvent:
		return "WithdrawTimeoutChanged"
	default:
		return fmt.Sprintf("%T", ev)
	}
}
