package guest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler serves the guest snapshots of the caller's X-Guest-Id. Edits go
// through the editor's guest field route.
type Handler struct {
	KV KV
}

func NewHandler(kv KV) *Handler {
	return &Handler{KV: kv}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/guest/portfolios", h.list)
	rg.GET("/guest/portfolios/:id", h.get)
	rg.DELETE("/guest/portfolios/:id", h.delete)
}

// StoreFor returns the store scoped to one guest session.
func (h *Handler) StoreFor(guestID string) *Store {
	return NewStore(Scoped(h.KV, guestID))
}

func (h *Handler) store(c *gin.Context) (*Store, bool) {
	guestID := middleware.GuestIDFromContext(c)
	if guestID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "X-Guest-Id header is required", nil)
		return nil, false
	}
	return h.StoreFor(guestID), true
}

func (h *Handler) list(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	snaps, err := store.LoadAll(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list guest portfolios", nil)
		return
	}
	items := make([]portfolios.Portfolio, 0, len(snaps))
	for _, snap := range snaps {
		items = append(items, portfolios.Hydrate(snap.Data, identity.GuestOwnerID))
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	rec, err := store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "guest portfolio not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load guest portfolio", nil)
		return
	}
	respond.OK(c, portfolios.Hydrate(rec, identity.GuestOwnerID))
}

func (h *Handler) delete(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	if err := store.Clear(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete guest portfolio", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
