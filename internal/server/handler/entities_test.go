package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/store/memory"
)

func newTestMux(t *testing.T, store domain.EntityStore) *http.ServeMux {
	t.Helper()
	h := NewEntityHandler(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/games/{id}", h.GetGame)
	mux.HandleFunc("GET /api/conditions/{id}", h.GetCondition)
	mux.HandleFunc("GET /api/audit", h.ListAudit)
	return mux
}

func TestGetGameReturnsEntity(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.PutGame(context.Background(), &domain.Game{
		ID:     "lp_1",
		GameID: big.NewInt(1),
		Title:  "Arsenal - Chelsea",
	}))

	rec := httptest.NewRecorder()
	newTestMux(t, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/lp_1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Arsenal - Chelsea", got["Title"])
}

func TestGetConditionMissingReturns404(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(t, memory.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conditions/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAuditWithoutListerReturns501(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(t, memory.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
