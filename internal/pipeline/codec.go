package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// maxLineSize bounds one JSONL record; express bets with many legs still fit
// comfortably.
const maxLineSize = 4 << 20

// wireEnvelope is the decoding half of envelope: the payload stays raw until
// the name picks its type.
type wireEnvelope struct {
	Name  string          `json:"name"`
	Event json.RawMessage `json:"event"`
}

// DecodeEvent turns one named raw payload back into its typed event. The
// format is exactly what the Archiver writes.
func DecodeEvent(name string, raw json.RawMessage) (any, error) {
	var ev any
	switch name {
	case "GameCreated":
		ev = &domain.GameCreatedEvent{}
	case "GameShifted":
		ev = &domain.GameShiftedEvent{}
	case "GameCanceled":
		ev = &domain.GameCanceledEvent{}
	case "ConditionCreated":
		ev = &domain.ConditionCreatedEvent{}
	case "OddsChanged":
		ev = &domain.OddsChangedEvent{}
	case "MarginChanged":
		ev = &domain.MarginChangedEvent{}
	case "ReinforcementChanged":
		ev = &domain.ReinforcementChangedEvent{}
	case "ConditionStopped":
		ev = &domain.ConditionStoppedEvent{}
	case "ConditionResolved":
		ev = &domain.ConditionResolvedEvent{}
	case "NewBet":
		ev = &domain.NewBetEvent{}
	case "NewExpressBet":
		ev = &domain.NewExpressBetEvent{}
	case "BettorWin":
		ev = &domain.BettorWinEvent{}
	case "BetTransfer":
		ev = &domain.BetTransferEvent{}
	case "FreebetMinted":
		ev = &domain.FreebetMintedEvent{}
	case "FreebetReissued":
		ev = &domain.FreebetReissuedEvent{}
	case "FreebetRedeemed":
		ev = &domain.FreebetRedeemedEvent{}
	case "FreebetWithdrawn":
		ev = &domain.FreebetWithdrawnEvent{}
	case "FreebetTransfer":
		ev = &domain.FreebetTransferEvent{}
	case "FreebetResolved":
		ev = &domain.FreebetResolvedEvent{}
	case "LiquidityDeposited":
		ev = &domain.LiquidityDepositedEvent{}
	case "LiquidityWithdrawn":
		ev = &domain.LiquidityWithdrawnEvent{}
	case "LiquidityTransfer":
		ev = &domain.LiquidityTransferEvent{}
	case "WithdrawTimeoutChanged":
		ev = &domain.WithdrawTimeoutChangedEvent{}
	default:
		return nil, fmt.Errorf("pipeline: unknown event name %q", name)
	}
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, fmt.Errorf("pipeline: decode %s: %w", name, err)
	}
	return ev, nil
}

// ReadStream decodes a JSONL event stream line by line and hands each typed
// event to fn in stream order. It stops on the first malformed line, on an
// fn error, or when ctx is cancelled.
func ReadStream(ctx context.Context, r io.Reader, fn func(ctx context.Context, ev any) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: read stream: %w", domain.ErrContextDone)
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var env wireEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("pipeline: stream line %d: %w", line, err)
		}
		ev, err := DecodeEvent(env.Name, env.Event)
		if err != nil {
			return fmt.Errorf("pipeline: stream line %d: %w", line, err)
		}
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("pipeline: read stream: %w", err)
	}
	return nil
}
