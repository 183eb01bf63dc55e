// Package metadata resolves content-addressed game descriptors through an
// IPFS gateway.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// DefaultCountry is used when a descriptor carries no country field.
const DefaultCountry = "International Tournaments"

// maxDescriptorSize bounds gateway responses; descriptors are tiny JSON
// documents.
const maxDescriptorSize = 1 << 20

// Cache memoizes resolved descriptors keyed by content hash. Both methods
// follow the store conventions: Get returns domain.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, hash string) (*domain.GameMetadata, error)
	Set(ctx context.Context, hash string, meta *domain.GameMetadata) error
}

// Config holds fetcher settings.
type Config struct {
	GatewayURL        string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
}

// Fetcher implements domain.MetadataFetcher over an HTTP gateway with rate
// limiting and retries. A Cache is optional; cache failures only log.
type Fetcher struct {
	gatewayURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	cache      Cache
	log        *slog.Logger
}

// NewFetcher creates a Fetcher. cache may be nil.
func NewFetcher(cfg Config, cache Cache, log *slog.Logger) *Fetcher {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		maxRetries: retries,
		cache:      cache,
		log:        log.With("component", "metadata"),
	}
}

var _ domain.MetadataFetcher = (*Fetcher)(nil)

// FetchGame resolves one content hash into a parsed game descriptor.
func (f *Fetcher) FetchGame(ctx context.Context, hash string) (*domain.GameMetadata, error) {
	if f.cache != nil {
		meta, err := f.cache.Get(ctx, hash)
		if err == nil {
			return meta, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			f.log.Warn("metadata cache read failed", "hash", hash, "error", err)
		}
	}

	body, err := f.fetch(ctx, hash)
	if err != nil {
		return nil, err
	}

	meta, err := parseDescriptor(body)
	if err != nil {
		return nil, fmt.Errorf("metadata: parse %s: %w", hash, err)
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, hash, meta); err != nil {
			f.log.Warn("metadata cache write failed", "hash", hash, "error", err)
		}
	}
	return meta, nil
}

func (f *Fetcher) fetch(ctx context.Context, hash string) ([]byte, error) {
	url := f.gatewayURL + "/" + hash

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("metadata: rate limit wait: %w", err)
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("metadata: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorSize))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("gateway status %d", resp.StatusCode)
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("metadata: fetch %s: %w", hash, lastErr)
}

// parseDescriptor decodes the loosely-typed descriptor JSON. Historic
// descriptors use several field spellings: sportTypeId vs sportId, a bare
// titleCountry string vs a country object, and entityNName participant keys.
func parseDescriptor(body []byte) (*domain.GameMetadata, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	meta := &domain.GameMetadata{CountryName: DefaultCountry}

	if v := numberField(doc, "sportTypeId"); v != nil {
		meta.SportID = v
	} else if v := numberField(doc, "sportId"); v != nil {
		meta.SportID = v
	}
	if meta.SportID == nil {
		return nil, errors.New("missing sport id")
	}

	if s := stringField(doc, "titleCountry"); s != "" {
		meta.CountryName = s
	} else if s := objectNameField(doc, "country"); s != "" {
		meta.CountryName = s
	}

	if s := stringField(doc, "titleLeague"); s != "" {
		meta.LeagueName = s
	} else if s := objectNameField(doc, "league"); s != "" {
		meta.LeagueName = s
	}
	if meta.LeagueName == "" {
		return nil, errors.New("missing league name")
	}

	// Only V1-era descriptors carry the game id.
	meta.GameID = numberField(doc, "gameId")

	meta.Provider = big.NewInt(1)
	if raw, ok := doc["extra"]; ok {
		var extra map[string]json.RawMessage
		if err := json.Unmarshal(raw, &extra); err == nil {
			if v := numberField(extra, "provider"); v != nil {
				meta.Provider = v
			}
		}
	}

	for i := 1; ; i++ {
		name := stringField(doc, fmt.Sprintf("entity%dName", i))
		if name == "" {
			break
		}
		meta.Participants = append(meta.Participants, domain.GameMetadataParticipant{
			Name:  name,
			Image: stringField(doc, fmt.Sprintf("entity%dImage", i)),
		})
	}

	return meta, nil
}

func stringField(doc map[string]json.RawMessage, key string) string {
	raw, ok := doc[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func numberField(doc map[string]json.RawMessage, key string) *big.Int {
	raw, ok := doc[key]
	if !ok {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	v, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		return nil
	}
	return v
}

func objectNameField(doc map[string]json.RawMessage, key string) string {
	raw, ok := doc[key]
	if !ok {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return stringField(obj, "name")
}
