package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
)

type capturedPut struct {
	path        string
	contentType string
	body        string
}

type fakeBlobWriter struct {
	puts     []capturedPut
	failNext int
}

func (f *fakeBlobWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("upload refused")
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.puts = append(f.puts, capturedPut{path: path, contentType: contentType, body: string(body)})
	return nil
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeLines(t *testing.T, body string) []envelope {
	t.Helper()
	var lines []envelope
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		var env envelope
		require.NoError(t, json.Unmarshal(sc.Bytes(), &env))
		lines = append(lines, env)
	}
	return lines
}

func TestArchiverFlushWritesJSONLBatch(t *testing.T) {
	w := &fakeBlobWriter{}
	a := NewArchiver(w, "archive", "polygon", time.Minute, 100, discardLog())

	a.Record("GameCreated", &domain.GameCreatedEvent{GameID: big.NewInt(7)})
	a.Record("GameShifted", &domain.GameShiftedEvent{GameID: big.NewInt(7)})

	require.NoError(t, a.Flush(context.Background()))
	require.Len(t, w.puts, 1)

	put := w.puts[0]
	assert.Equal(t, "application/x-ndjson", put.contentType)
	assert.True(t, strings.HasPrefix(put.path, "archive/polygon/"), put.path)
	assert.True(t, strings.HasSuffix(put.path, "batch-000001.jsonl"), put.path)

	lines := decodeLines(t, put.body)
	require.Len(t, lines, 2)
	assert.Equal(t, "GameCreated", lines[0].Name)
	assert.Equal(t, "GameShifted", lines[1].Name)
}

func TestArchiverFlushSplitsOversizedBatches(t *testing.T) {
	w := &fakeBlobWriter{}
	a := NewArchiver(w, "archive", "polygon", time.Minute, 2, discardLog())

	for i := 0; i < 5; i++ {
		a.Record("NewBet", &domain.NewBetEvent{TokenID: big.NewInt(int64(i))})
	}

	require.NoError(t, a.Flush(context.Background()))
	require.Len(t, w.puts, 3)
	assert.Len(t, decodeLines(t, w.puts[0].body), 2)
	assert.Len(t, decodeLines(t, w.puts[1].body), 2)
	assert.Len(t, decodeLines(t, w.puts[2].body), 1)

	// Batch numbers stay monotonic across splits.
	assert.Contains(t, w.puts[2].path, "batch-000003.jsonl")
}

type fakeMultipartWriter struct {
	fakeBlobWriter
	multi    []capturedPut
	partSize int64
}

func (f *fakeMultipartWriter) PutMultipart(_ context.Context, path string, data io.Reader, contentType string, partSize int64) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.multi = append(f.multi, capturedPut{path: path, contentType: contentType, body: string(body)})
	f.partSize = partSize
	return nil
}

func TestArchiverUploadUsesMultipartForLargeBatches(t *testing.T) {
	w := &fakeMultipartWriter{}
	a := NewArchiver(w, "archive", "polygon", time.Minute, 100, discardLog())

	require.NoError(t, a.upload(context.Background(), "archive/polygon/small.jsonl", make([]byte, 64)))
	require.Len(t, w.puts, 1)
	assert.Empty(t, w.multi)

	require.NoError(t, a.upload(context.Background(), "archive/polygon/large.jsonl", make([]byte, multipartThreshold)))
	require.Len(t, w.multi, 1)
	assert.Equal(t, "archive/polygon/large.jsonl", w.multi[0].path)
	assert.Equal(t, "application/x-ndjson", w.multi[0].contentType)
	assert.Equal(t, multipartThreshold, w.partSize)
	assert.Len(t, w.puts, 1)
}

func TestArchiverFlushKeepsEventsOnUploadFailure(t *testing.T) {
	w := &fakeBlobWriter{failNext: 1}
	a := NewArchiver(w, "archive", "polygon", time.Minute, 100, discardLog())

	a.Record("BettorWin", &domain.BettorWinEvent{})
	require.Error(t, a.Flush(context.Background()))
	require.Empty(t, w.puts)

	require.NoError(t, a.Flush(context.Background()))
	require.Len(t, w.puts, 1)
	assert.Len(t, decodeLines(t, w.puts[0].body), 1)
}

func TestArchiverFlushEmptyIsNoop(t *testing.T) {
	w := &fakeBlobWriter{}
	a := NewArchiver(w, "archive", "polygon", time.Minute, 100, discardLog())
	require.NoError(t, a.Flush(context.Background()))
	assert.Empty(t, w.puts)
}
