package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// AuditLister reads back slices of the handled-event log.
type AuditLister interface {
	ListAuditEvents(ctx context.Context, fromBlock, toBlock int64, limit int) ([]domain.AuditEvent, error)
}

// EntityHandler serves read-only lookups of derived entities.
type EntityHandler struct {
	store domain.EntityStore
	audit AuditLister
	log   *slog.Logger
}

// NewEntityHandler creates an EntityHandler. audit may be nil when the store
// has no listable audit log.
func NewEntityHandler(store domain.EntityStore, audit AuditLister, log *slog.Logger) *EntityHandler {
	return &EntityHandler{
		store: store,
		audit: audit,
		log:   log.With(slog.String("component", "entity_handler")),
	}
}

// get runs one keyed lookup and writes the JSON result or the error.
func (h *EntityHandler) get(w http.ResponseWriter, r *http.Request, load func(ctx context.Context, id string) (any, error)) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	v, err := load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.log.Error("entity lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *EntityHandler) GetCondition(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, func(ctx context.Context, id string) (any, error) {
		return h.store.GetCondition(ctx, id)
	})
}

func (h *EntityHandler) GetOutcome(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, func(ctx context.Context, id string) (any, error) {
		return h.store.GetOutcome(ctx, id)
	})
}

func (h *EntityHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, func(ctx context.Context, id string) (any, error) {
		return h.store.GetBet(ctx, id)
	})
}

func (h *EntityHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, func(ctx context.Context, id string) (any, error) {
		return h.store.GetGame(ctx, id)
	})
}

func (h *EntityHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, func(ctx context.Context, id string) (any, error) {
		return h.store.GetPool(ctx, id)
	})
}

func (h *EntityHandler) GetFreebet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, func(ctx context.Context, id string) (any, error) {
		return h.store.GetFreebet(ctx, id)
	})
}

// ListAudit returns handled-event rows in a block range, capped at 1000.
func (h *EntityHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotImplemented, "audit log not available")
		return
	}
	from := queryInt64(r, "from", 0)
	to := queryInt64(r, "to", 0)
	limit := queryLimit(r, 100, 1000)

	events, err := h.audit.ListAuditEvents(r.Context(), from, to, limit)
	if err != nil {
		h.log.Error("audit list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}
