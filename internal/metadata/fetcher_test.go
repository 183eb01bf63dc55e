package metadata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
)

func discardSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(t *testing.T, gatewayURL string) *Fetcher {
	t.Helper()
	return NewFetcher(Config{
		GatewayURL:        gatewayURL,
		RequestTimeout:    2 * time.Second,
		RequestsPerSecond: 100,
		Burst:             10,
		MaxRetries:        1,
	}, nil, discardSlog())
}

func TestParseDescriptorModernShape(t *testing.T) {
	body := []byte(`{
		"sportTypeId": 33,
		"country": {"name": "England"},
		"league": {"name": "Premier League"},
		"entity1Name": "Arsenal",
		"entity1Image": "https://img/arsenal.png",
		"entity2Name": "Chelsea",
		"extra": {"provider": 2}
	}`)

	meta, err := parseDescriptor(body)
	require.NoError(t, err)

	assert.Equal(t, "33", meta.SportID.String())
	assert.Equal(t, "England", meta.CountryName)
	assert.Equal(t, "Premier League", meta.LeagueName)
	assert.Equal(t, "2", meta.Provider.String())
	assert.Nil(t, meta.GameID)
	require.Len(t, meta.Participants, 2)
	assert.Equal(t, "Arsenal", meta.Participants[0].Name)
	assert.Equal(t, "https://img/arsenal.png", meta.Participants[0].Image)
	assert.Equal(t, "Chelsea", meta.Participants[1].Name)
	assert.Empty(t, meta.Participants[1].Image)
}

func TestParseDescriptorLegacyShape(t *testing.T) {
	body := []byte(`{
		"gameId": 777,
		"sportId": 45,
		"titleCountry": "Spain",
		"titleLeague": "La Liga",
		"entity1Name": "Real Madrid",
		"entity2Name": "Barcelona"
	}`)

	meta, err := parseDescriptor(body)
	require.NoError(t, err)

	assert.Equal(t, "45", meta.SportID.String())
	assert.Equal(t, "777", meta.GameID.String())
	assert.Equal(t, "Spain", meta.CountryName)
	assert.Equal(t, "La Liga", meta.LeagueName)
	assert.Equal(t, "1", meta.Provider.String(), "provider defaults to 1")
}

func TestParseDescriptorDefaultsCountry(t *testing.T) {
	body := []byte(`{
		"sportId": 33,
		"league": {"name": "Friendlies"}
	}`)

	meta, err := parseDescriptor(body)
	require.NoError(t, err)
	assert.Equal(t, DefaultCountry, meta.CountryName)
}

func TestParseDescriptorRejectsMissingFields(t *testing.T) {
	_, err := parseDescriptor([]byte(`{"league": {"name": "x"}}`))
	require.Error(t, err)

	_, err = parseDescriptor([]byte(`{"sportId": 33}`))
	require.Error(t, err)
}

func TestFetchGameRetriesAndParses(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/QmTest", r.URL.Path)
		_, _ = w.Write([]byte(`{"sportId": 33, "league": {"name": "Premier League"}}`))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	meta, err := f.FetchGame(context.Background(), "QmTest")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Premier League", meta.LeagueName)
}

func TestFetchGameFailsAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	_, err := f.FetchGame(context.Background(), "QmMissing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

type memCache struct {
	data map[string]*domain.GameMetadata
}

func (m *memCache) Get(_ context.Context, hash string) (*domain.GameMetadata, error) {
	meta, ok := m.data[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return meta, nil
}

func (m *memCache) Set(_ context.Context, hash string, meta *domain.GameMetadata) error {
	m.data[hash] = meta
	return nil
}

func TestFetchGameUsesCache(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"sportId": 33, "league": {"name": "Premier League"}}`))
	}))
	defer srv.Close()

	cache := &memCache{data: map[string]*domain.GameMetadata{}}
	f := NewFetcher(Config{
		GatewayURL:        srv.URL,
		RequestTimeout:    2 * time.Second,
		RequestsPerSecond: 100,
		Burst:             10,
	}, cache, discardSlog())

	for i := 0; i < 3; i++ {
		_, err := f.FetchGame(context.Background(), "QmCached")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls, "gateway hit once, cache after")
}

func TestCIDFromBytes32(t *testing.T) {
	cid, err := CIDFromBytes32("0x" + strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Len(t, cid, 46)
	assert.True(t, strings.HasPrefix(cid, "Qm"), "CIDv0 always starts with Qm, got %s", cid)

	again, err := CIDFromBytes32(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, cid, again, "0x prefix must not change the result")

	_, err = CIDFromBytes32("0x1234")
	require.Error(t, err)

	_, err = CIDFromBytes32("zz")
	require.Error(t, err)
}
