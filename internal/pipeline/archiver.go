package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// BlobWriter uploads one object to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// MultipartWriter is implemented by blob writers that can split a large
// object into concurrently uploaded parts.
type MultipartWriter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, contentType string, partSize int64) error
}

// multipartThreshold is the encoded batch size above which a flush switches
// to a multipart upload.
const multipartThreshold int64 = 8 * 1024 * 1024

// envelope is one archived event line.
type envelope struct {
	Name       string    `json:"name"`
	RecordedAt time.Time `json:"recorded_at"`
	Event      any       `json:"event"`
}

// Archiver mirrors the decoded event stream to S3 as JSONL batches, so a
// derivation run can be audited or replayed without the chain. Record is
// cheap and synchronous; uploads happen from Run on a flush interval.
type Archiver struct {
	writer        BlobWriter
	prefix        string
	chainName     string
	flushInterval time.Duration
	maxBatch      int
	log           *slog.Logger

	mu      sync.Mutex
	pending []envelope
	batchNo int
}

// NewArchiver creates an Archiver writing under prefix/chainName/.
func NewArchiver(writer BlobWriter, prefix, chainName string, flushInterval time.Duration, maxBatch int, log *slog.Logger) *Archiver {
	if flushInterval <= 0 {
		flushInterval = time.Minute
	}
	if maxBatch < 1 {
		maxBatch = 10_000
	}
	return &Archiver{
		writer:        writer,
		prefix:        prefix,
		chainName:     chainName,
		flushInterval: flushInterval,
		maxBatch:      maxBatch,
		log:           log.With("component", "archiver"),
	}
}

// Record buffers one event for the next flush.
func (a *Archiver) Record(name string, ev any) {
	a.mu.Lock()
	a.pending = append(a.pending, envelope{
		Name:       name,
		RecordedAt: time.Now().UTC(),
		Event:      ev,
	})
	a.mu.Unlock()
}

// Run flushes periodically until ctx is cancelled, then flushes once more so
// a clean shutdown loses nothing.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := a.Flush(flushCtx)
			cancel()
			if err != nil {
				a.log.Error("final flush failed", "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil {
				a.log.Error("flush failed", "error", err)
			}
		}
	}
}

// Flush uploads everything buffered so far, splitting oversized batches. On
// upload failure the batch stays buffered for the next attempt.
func (a *Archiver) Flush(ctx context.Context) error {
	for {
		a.mu.Lock()
		if len(a.pending) == 0 {
			a.mu.Unlock()
			return nil
		}
		n := len(a.pending)
		if n > a.maxBatch {
			n = a.maxBatch
		}
		batch := make([]envelope, n)
		copy(batch, a.pending)
		no := a.batchNo + 1
		a.mu.Unlock()

		buf, err := marshalJSONL(batch)
		if err != nil {
			return fmt.Errorf("pipeline: archive marshal: %w", err)
		}

		path := a.objectPath(time.Now().UTC(), no)
		if err := a.upload(ctx, path, buf); err != nil {
			return fmt.Errorf("pipeline: archive upload %s: %w", path, err)
		}

		a.log.Info("archived event batch", "path", path, "events", n)

		a.mu.Lock()
		a.pending = a.pending[n:]
		a.batchNo = no
		done := len(a.pending) == 0
		a.mu.Unlock()
		if done {
			return nil
		}
	}
}

// upload routes oversized batches through the multipart path when the
// writer supports it.
func (a *Archiver) upload(ctx context.Context, path string, buf []byte) error {
	if mw, ok := a.writer.(MultipartWriter); ok && int64(len(buf)) >= multipartThreshold {
		return mw.PutMultipart(ctx, path, bytes.NewReader(buf), "application/x-ndjson", multipartThreshold)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

func (a *Archiver) objectPath(now time.Time, batchNo int) string {
	return fmt.Sprintf("%s/%s/%s/batch-%06d.jsonl",
		a.prefix, a.chainName, now.Format("2006-01-02"), batchNo)
}

func marshalJSONL(lines []envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range lines {
		if err := enc.Encode(&lines[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
