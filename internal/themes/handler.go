package themes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/editor"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/shared/server/respond"
	"portfolio-backend/internal/shared/telemetry"
)

// Handler copies the style of one owned document onto another.
type Handler struct {
	Editor *editor.Handler
}

func NewHandler(ed *editor.Handler) *Handler {
	return &Handler{Editor: ed}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/portfolios/:id/theme-import", h.importTheme)
}

type importRequest struct {
	SourceID string `json:"sourceId"`
}

type importResponse struct {
	Descriptor Descriptor           `json:"descriptor"`
	Document   portfolios.Portfolio `json:"document"`
}

func (h *Handler) importTheme(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.SourceID = strings.TrimSpace(req.SourceID)
	if req.SourceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sourceId is required", nil)
		return
	}
	id := c.Param("id")
	if req.SourceID == id {
		respond.Error(c, http.StatusBadRequest, "validation_error", "source and destination must differ", nil)
		return
	}

	var writeErr error
	sess, ok := h.Editor.OpenFor(c, id, func(err error) { writeErr = err })
	if !ok {
		return
	}
	defer sess.Close()

	owner := sess.Owner()
	raw, err := h.Editor.Store.Get(c.Request.Context(), owner.ID, req.SourceID)
	if err != nil {
		telemetry.Warn("themes.source_unavailable", map[string]any{
			"sourceId": req.SourceID,
			"err":      err.Error(),
		})
		editor.Fail(c, err)
		return
	}
	source := h.Editor.Hydrator.Hydrate(raw, owner.ID)
	desc := Extract(source)

	dst, _ := sess.Current()
	if err := Apply(sess.Updater(), dst, desc); err != nil {
		editor.Fail(c, err)
		return
	}
	sess.Wait()
	if writeErr != nil {
		editor.Fail(c, writeErr)
		return
	}
	doc, _ := sess.Current()
	respond.OK(c, importResponse{Descriptor: desc, Document: doc})
}
