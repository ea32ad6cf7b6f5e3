package assets

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/editor"
	"portfolio-backend/internal/imagegen"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
	"portfolio-backend/internal/shared/storage/object"
)

const maxUploadSize = 10 << 20 // 10MB

var allowedImageTypes = map[string]struct{}{
	"image/png":     {},
	"image/jpeg":    {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
}

// Handler wires the asset pipeline to HTTP.
type Handler struct {
	Editor    *editor.Handler
	Store     object.ObjectStore
	Generator imagegen.Generator
	Credits   Credits
}

// NewHandler constructs a Handler.
func NewHandler(ed *editor.Handler, store object.ObjectStore, gen imagegen.Generator, credits Credits) *Handler {
	return &Handler{Editor: ed, Store: store, Generator: gen, Credits: credits}
}

// RegisterRoutes attaches asset routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/portfolios/:id/assets/upload", h.upload)
	rg.POST("/portfolios/:id/assets/library", h.library)
	rg.POST("/portfolios/:id/assets/generate", h.generate)
	rg.GET("/assets/*key", h.serve)
}

type libraryRequest struct {
	Path string `json:"path"`
	Ref  string `json:"ref"`
}

type generateRequest struct {
	Path      string `json:"path"`
	Prompt    string `json:"prompt"`
	SourceURL string `json:"sourceUrl"`
}

type assetResponse struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	Document any    `json:"document"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	target := strings.TrimSpace(c.PostForm("path"))
	if target == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path is required", nil)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		if _, ok := allowedImageTypes[strings.ToLower(ct)]; !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file must be an image", nil)
			return
		}
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	h.apply(c, target, func(coord *Coordinator) (string, error) {
		return coord.Upload(c.Request.Context(), fileHeader.Filename, file)
	})
}

func (h *Handler) library(c *gin.Context) {
	var req libraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.Ref) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path and ref are required", nil)
		return
	}
	h.apply(c, req.Path, func(coord *Coordinator) (string, error) {
		return coord.UseLibrary(c.Request.Context(), req.Ref)
	})
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.Prompt) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path and prompt are required", nil)
		return
	}
	h.apply(c, req.Path, func(coord *Coordinator) (string, error) {
		return coord.Generate(c.Request.Context(), req.Prompt, req.SourceURL)
	})
}

func (h *Handler) apply(c *gin.Context, target string, op func(*Coordinator) (string, error)) {
	var writeErr error
	sess, ok := h.Editor.OpenFor(c, c.Param("id"), func(err error) { writeErr = err })
	if !ok {
		return
	}
	defer sess.Close()

	coord := &Coordinator{
		Writer:    sess.Updater(),
		Uploader:  StoreUploader{Store: h.Store},
		Generator: h.Generator,
		Credits:   h.Credits,
		Session:   middleware.SessionFromContext(c),
	}
	coord.Open(target)
	ref, err := op(coord)
	if err != nil {
		h.fail(c, err)
		return
	}
	sess.Wait()
	if writeErr != nil {
		editor.Fail(c, writeErr)
		return
	}
	doc, _ := sess.Current()
	respond.OK(c, assetResponse{Path: target, URL: ref, Document: doc})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var assetErr *Error
	if !errors.As(err, &assetErr) {
		editor.Fail(c, err)
		return
	}
	switch {
	case assetErr.Kind == KindWrite:
		editor.Fail(c, assetErr.Err)
	case errors.Is(err, ErrLoginRequired):
		respond.Error(c, http.StatusUnauthorized, "login_required", "sign in to generate images", nil)
	case errors.Is(err, ErrCreditExhausted):
		respond.Error(c, http.StatusPaymentRequired, "credit_exhausted", "no image generation credits left", gin.H{"retryable": false})
	case errors.Is(err, ErrInvalidReference), errors.Is(err, imagegen.ErrEmptyPrompt):
		respond.Error(c, http.StatusBadRequest, "validation_error", assetErr.Err.Error(), nil)
	case errors.Is(err, imagegen.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "image generation is not configured", nil)
	case errors.Is(err, ErrSuperseded), errors.Is(err, ErrNoActiveTarget):
		respond.Error(c, http.StatusConflict, "target_changed", assetErr.Err.Error(), nil)
	default:
		respond.Error(c, http.StatusBadGateway, "asset_failed", "asset operation failed", gin.H{"source": string(assetErr.Source)})
	}
}

func (h *Handler) serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
		return
	}
	rc, err := h.Store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid asset key", nil)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
