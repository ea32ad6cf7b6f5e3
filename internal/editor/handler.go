package editor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler exposes field-level edits of remote and guest documents.
type Handler struct {
	Store    portfolios.Store
	Resolver *identity.Resolver
	Hydrator portfolios.Hydrator
	// Guests scopes guest storage to one X-Guest-Id. Guest edits are refused
	// when nil.
	Guests func(guestID string) *guest.Store
}

func NewHandler(store portfolios.Store, resolver *identity.Resolver) *Handler {
	return &Handler{Store: store, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	for prefix, run := range map[string]runner{
		"/portfolios/:id":       h.runRemote,
		"/guest/portfolios/:id": h.runGuest,
	} {
		rg.PATCH(prefix+"/fields", setField(run))
		rg.POST(prefix+"/lists/:list", insertEntry(run))
		rg.DELETE(prefix+"/lists/:list/:entryId", removeEntry(run))
		rg.POST(prefix+"/lists/:list/:entryId/move", moveEntry(run))
	}
}

type fieldRequest struct {
	Path  string          `json:"path"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// OpenFor resolves the caller's owner for document id and opens a session
// that is ready to edit. The caller must Close it.
func (h *Handler) OpenFor(c *gin.Context, id string, onWriteError func(error)) (*Session, bool) {
	s := middleware.SessionFromContext(c)
	if !s.Authenticated() {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return nil, false
	}
	owner := h.Resolver.Resolve(c.Request.Context(), s, id, handleFor(c, id))
	c.Set("portfolioId", id)
	c.Set("ownerKind", string(owner.Kind))
	if owner.Kind != identity.KindSelf {
		respond.Error(c, http.StatusForbidden, "forbidden", "only the owner can edit this portfolio", nil)
		return nil, false
	}

	canonical := make(chan string, 1)
	sess := Open(c.Request.Context(), Options{
		DocumentID: id,
		Owner:      owner,
		Handle:     s.Handle(),
		Store:      h.Store,
		Hydrator:   h.Hydrator,
		Navigator: NavigatorFunc(func(path string) {
			select {
			case canonical <- path:
			default:
			}
		}),
		OnWriteError: onWriteError,
	})
	if err := sess.WaitReady(c.Request.Context()); err != nil {
		sess.Close()
		Fail(c, err)
		return nil, false
	}
	select {
	case path := <-canonical:
		c.Header("Content-Location", path)
	default:
	}
	return sess, true
}

// handleFor reads the owner handle from ?handle=, falling back to the edit
// page the request came from when that page is for the same document.
func handleFor(c *gin.Context, id string) string {
	if handle := c.Query("handle"); handle != "" {
		return handle
	}
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil {
		return ""
	}
	handle, refID, ok := ParseEditPath(ref.Path)
	if !ok || refID != id {
		return ""
	}
	return handle
}

// edit changes a document through its updater and returns extra response
// fields, or nil to respond with the document alone.
type edit func(up Updater) (gin.H, error)

// runner opens the session a route edits through and responds with status.
type runner func(c *gin.Context, status int, fn edit)

func (h *Handler) runRemote(c *gin.Context, status int, fn edit) {
	var writeErr error
	sess, ok := h.OpenFor(c, c.Param("id"), func(err error) { writeErr = err })
	if !ok {
		return
	}
	defer sess.Close()

	extra, err := fn(sess.Updater())
	if err != nil {
		Fail(c, err)
		return
	}
	sess.Wait()
	if writeErr != nil {
		Fail(c, writeErr)
		return
	}
	doc, _ := sess.Current()
	respondEdit(c, status, doc, extra)
}

// runGuest edits a guest snapshot through a guest session. An unknown id
// starts from a generated document, saved on the first edit.
func (h *Handler) runGuest(c *gin.Context, status int, fn edit) {
	guestID := middleware.GuestIDFromContext(c)
	if guestID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "X-Guest-Id header is required", nil)
		return
	}
	if h.Guests == nil {
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "guest editing is not configured", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	c.Set("portfolioId", id)

	sess := Open(c.Request.Context(), Options{
		DocumentID: id,
		Owner:      identity.GuestOwner(),
		TemplateID: c.Query("templateId"),
		Guest:      h.Guests(guestID),
		Hydrator:   h.Hydrator,
	})
	defer sess.Close()

	extra, err := fn(sess.Updater())
	if err != nil {
		Fail(c, err)
		return
	}
	doc, _ := sess.Current()
	respondEdit(c, status, doc, extra)
}

func respondEdit(c *gin.Context, status int, doc portfolios.Portfolio, extra gin.H) {
	if extra == nil {
		respond.JSON(c, status, doc)
		return
	}
	extra["document"] = doc
	respond.JSON(c, status, extra)
}

func setField(run runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fieldRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
			return
		}
		req.Path, req.Key = strings.TrimSpace(req.Path), strings.TrimSpace(req.Key)
		if (req.Path == "") == (req.Key == "") {
			respond.Error(c, http.StatusBadRequest, "validation_error", "exactly one of path or key is required", nil)
			return
		}
		var value any
		if len(req.Value) > 0 {
			if err := json.Unmarshal(req.Value, &value); err != nil {
				respond.Error(c, http.StatusBadRequest, "validation_error", "invalid value", nil)
				return
			}
		}
		run(c, http.StatusOK, func(up Updater) (gin.H, error) {
			if req.Path != "" {
				return nil, up.Set(req.Path, value)
			}
			return nil, up.Merge(req.Key, value)
		})
	}
}

type insertRequest struct {
	At    *int            `json:"at"`
	Entry json.RawMessage `json:"entry"`
}

// insertEntry appends by default; "at" places the entry at a position.
func insertEntry(run runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req insertRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
			return
		}
		at := math.MaxInt
		if req.At != nil {
			at = *req.At
		}
		run(c, http.StatusCreated, func(up Updater) (gin.H, error) {
			id, err := up.Insert(c.Param("list"), at, req.Entry)
			if err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		})
	}
}

func removeEntry(run runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		run(c, http.StatusOK, func(up Updater) (gin.H, error) {
			return nil, up.Remove(c.Param("list"), c.Param("entryId"))
		})
	}
}

type moveRequest struct {
	To *int `json:"to"`
}

func moveEntry(run runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req moveRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil || req.To == nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "to is required", nil)
			return
		}
		run(c, http.StatusOK, func(up Updater) (gin.H, error) {
			return nil, up.Move(c.Param("list"), c.Param("entryId"), *req.To)
		})
	}
}

// Fail maps editor and store errors to responses.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPath):
		respond.Error(c, http.StatusBadRequest, "invalid_path", err.Error(), nil)
	case errors.Is(err, ErrEntryNotFound):
		respond.Error(c, http.StatusNotFound, "entry_not_found", err.Error(), nil)
	case errors.Is(err, ErrInvalidValue), errors.Is(err, portfolios.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, portfolios.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "portfolio not found", nil)
	case errors.Is(err, portfolios.ErrGuestOwner):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update portfolio", nil)
	}
}
