package portfolios

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler exposes the remote store over HTTP for signed-in callers.
type Handler struct {
	Svc      *Service
	Resolver *identity.Resolver
}

func NewHandler(svc *Service, resolver *identity.Resolver) *Handler {
	return &Handler{Svc: svc, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/portfolios", h.list)
	rg.POST("/portfolios", h.create)
	rg.GET("/portfolios/:id", h.get)
	rg.PATCH("/portfolios/:id", h.merge)
	rg.DELETE("/portfolios/:id", h.delete)
	rg.GET("/portfolios/:id/events", h.events)
	rg.GET("/link-themes", h.linkThemes)
}

type createRequest struct {
	TemplateID string `json:"templateId"`
	Mode       string `json:"mode"`
	Title      string `json:"title"`
}

func (h *Handler) session(c *gin.Context) (identity.Session, bool) {
	s := middleware.SessionFromContext(c)
	if !s.Authenticated() {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return identity.Session{}, false
	}
	return s, true
}

func (h *Handler) owner(c *gin.Context, s identity.Session) identity.Owner {
	id := c.Param("id")
	owner := h.Resolver.Resolve(c.Request.Context(), s, id, c.Query("handle"))
	c.Set("portfolioId", id)
	c.Set("ownerKind", string(owner.Kind))
	return owner
}

func (h *Handler) list(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	docs, err := h.Svc.LoadAll(c.Request.Context(), s.UserID)
	if err != nil {
		h.fail(c, err, "failed to list portfolios")
		return
	}
	respond.OK(c, gin.H{"items": docs})
}

func (h *Handler) create(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req createRequest
	if err := decodeOptionalJSON(c.Request.Body, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	mode := Mode(strings.TrimSpace(req.Mode))
	if req.Mode != "" && !mode.Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown mode", gin.H{"mode": req.Mode})
		return
	}

	doc := Generate(GenerateOptions{
		OwnerID:    s.UserID,
		TemplateID: req.TemplateID,
		Mode:       mode,
		Title:      req.Title,
		Email:      s.Email,
		Now:        h.Svc.now(),
	})
	id, err := h.Svc.Create(c.Request.Context(), s.UserID, doc.Record())
	if err != nil {
		h.fail(c, err, "failed to create portfolio")
		return
	}
	created, err := h.Svc.Load(c.Request.Context(), s.UserID, id)
	if err != nil {
		h.fail(c, err, "failed to load portfolio")
		return
	}
	c.Set("portfolioId", id)
	respond.JSON(c, http.StatusCreated, created)
}

func (h *Handler) get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	owner := h.owner(c, s)
	doc, err := h.Svc.Load(c.Request.Context(), owner.ID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load portfolio")
		return
	}
	respond.OK(c, gin.H{"portfolio": doc, "owner": owner})
}

func (h *Handler) merge(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	owner := h.owner(c, s)
	if owner.Kind != identity.KindSelf {
		respond.Error(c, http.StatusForbidden, "forbidden", "only the owner can edit this portfolio", nil)
		return
	}
	var patch Patch
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil || len(patch) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "patch object is required", nil)
		return
	}
	for key := range patch {
		if !IsTopLevelKey(key) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown top-level key", gin.H{"key": key})
			return
		}
	}
	id := c.Param("id")
	if err := h.Svc.Merge(c.Request.Context(), owner.ID, id, patch); err != nil {
		h.fail(c, err, "failed to update portfolio")
		return
	}
	doc, err := h.Svc.Load(c.Request.Context(), owner.ID, id)
	if err != nil {
		h.fail(c, err, "failed to load portfolio")
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) delete(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	owner := h.owner(c, s)
	if owner.Kind != identity.KindSelf {
		respond.Error(c, http.StatusForbidden, "forbidden", "only the owner can delete this portfolio", nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), owner.ID, c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete portfolio")
		return
	}
	c.Status(http.StatusNoContent)
}

// events streams hydrated snapshots: the current one first, then one per
// remote change until the client goes away.
func (h *Handler) events(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	owner := h.owner(c, s)
	id := c.Param("id")
	ctx := c.Request.Context()

	// Subscribed before the first read so no change falls in between.
	snapshots := make(chan Portfolio, 8)
	hydrator := Hydrator{Now: h.Svc.Now}
	stop, err := h.Svc.Subscribe(ctx, owner.ID, id, func(rec Record) {
		pushLatest(ctx, snapshots, hydrator.Hydrate(rec, owner.ID))
	})
	if err != nil {
		h.fail(c, err, "failed to subscribe")
		return
	}
	defer stop()

	first, err := h.Svc.Load(ctx, owner.ID, id)
	if err != nil {
		h.fail(c, err, "failed to load portfolio")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.SSEvent("snapshot", first)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case doc := <-snapshots:
			c.SSEvent("snapshot", doc)
			return true
		}
	})
}

func (h *Handler) linkThemes(c *gin.Context) {
	respond.OK(c, gin.H{"items": LinkThemes()})
}

// pushLatest drops the oldest queued snapshot when the client reads slowly;
// every snapshot is complete, so only the newest matters.
func pushLatest(ctx context.Context, ch chan Portfolio, doc Portfolio) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch <- doc:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "portfolio not found", nil)
	case errors.Is(err, ErrGuestOwner):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}

func decodeOptionalJSON(body io.Reader, dst any) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
