package pipeline

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
)

func TestDecodeEventRoundTripsArchiverOutput(t *testing.T) {
	in := &domain.NewExpressBetEvent{
		Meta: domain.EventMeta{
			ContractAddress: testCore,
			TxHash:          "0xtx",
			LogIndex:        3,
			Block:           domain.BlockRef{Number: 42, Timestamp: 1_700_000_000},
		},
		BetID:  big.NewInt(9),
		Odds:   big.NewInt(2_500_000_000_000),
		Amount: big.NewInt(1_000_000),
		Bettor: "0xbettor",
		SubBets: []domain.SubBet{
			{ConditionID: big.NewInt(1), OutcomeID: big.NewInt(2), Odds: big.NewInt(1_500_000_000_000)},
		},
	}

	w := &fakeBlobWriter{}
	a := NewArchiver(w, "archive", "polygon", time.Minute, 100, discardLog())
	a.Record("NewExpressBet", in)
	require.NoError(t, a.Flush(context.Background()))

	var env wireEnvelope
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(w.puts[0].body)), &env))
	assert.Equal(t, "NewExpressBet", env.Name)

	decoded, err := DecodeEvent(env.Name, env.Event)
	require.NoError(t, err)
	out, ok := decoded.(*domain.NewExpressBetEvent)
	require.True(t, ok)
	assert.Equal(t, in.Meta, out.Meta)
	assert.Zero(t, in.BetID.Cmp(out.BetID))
	require.Len(t, out.SubBets, 1)
	assert.Zero(t, in.SubBets[0].Odds.Cmp(out.SubBets[0].Odds))
}

func TestDecodeEventRejectsUnknownName(t *testing.T) {
	_, err := DecodeEvent("NotAnEvent", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event name")
}

func TestReadStreamDeliversInOrder(t *testing.T) {
	stream := `{"name":"GameCreated","event":{"GameID":1,"MetadataHash":"bafk1","StartsAt":100}}
{"name":"GameShifted","event":{"GameID":1,"StartsAt":200}}

{"name":"GameCanceled","event":{"GameID":1}}
`
	var got []string
	err := ReadStream(context.Background(), strings.NewReader(stream), func(_ context.Context, ev any) error {
		got = append(got, EventName(ev))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GameCreated", "GameShifted", "GameCanceled"}, got)
}

func TestReadStreamFailsOnMalformedLine(t *testing.T) {
	stream := `{"name":"GameCreated","event":{"GameID":1}}
not json
`
	err := ReadStream(context.Background(), strings.NewReader(stream), func(context.Context, any) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
