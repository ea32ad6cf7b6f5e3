package migration

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler claims the caller's guest work after sign-in.
type Handler struct {
	GuestKV guest.KV
	Remote  Creator
	Env     string
}

func NewHandler(kv guest.KV, remote Creator, env string) *Handler {
	return &Handler{GuestKV: kv, Remote: remote, Env: env}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

func (h *Handler) claimGuest(c *gin.Context) {
	if h.GuestKV == nil || h.Remote == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	session := middleware.SessionFromContext(c)
	if !session.Authenticated() {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
	if guestID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "missing X-Guest-Id header", []map[string]string{
			{"field": "X-Guest-Id", "issue": "required"},
		})
		return
	}
	if _, err := uuid.Parse(guestID); err != nil && h.Env == "production" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid guest id", []map[string]string{
			{"field": "X-Guest-Id", "issue": "invalid"},
		})
		return
	}

	// The guest id names the anonymous session that just signed in.
	agent := &Agent{Guest: guest.NewStore(guest.Scoped(h.GuestKV, guestID)), Remote: h.Remote}
	result, err := agent.OnIdentityChange(c.Request.Context(), identity.Anonymous, session)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to claim guest data", nil)
		return
	}
	respond.JSON(c, http.StatusOK, result)
}
