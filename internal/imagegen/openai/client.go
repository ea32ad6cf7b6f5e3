package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"portfolio-backend/internal/imagegen"
	"portfolio-backend/internal/shared/telemetry"
)

var baseURL = "https://api.openai.com/v1"

const (
	defaultSize     = "1024x1024"
	maxSourceBytes  = 8 << 20
	maxResponseSize = 32 << 20
)

// Client implements imagegen.Generator using the OpenAI Images API. Calls
// are throttled client-side so a burst of requests cannot exhaust the quota.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient constructs a new OpenAI image client allowing perSecond calls.
func NewClient(apiKey, model string, perSecond float64) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("IMAGE_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}, nil
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imagesResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) Generate(ctx context.Context, req imagegen.Request) (imagegen.Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return imagegen.Image{}, imagegen.ErrEmptyPrompt
	}
	size := req.Size
	if size == "" {
		size = defaultSize
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return imagegen.Image{}, fmt.Errorf("openai throttle: %w", err)
	}

	start := time.Now()
	var (
		httpReq *http.Request
		err     error
	)
	if req.SourceURL != "" {
		httpReq, err = c.editRequest(ctx, prompt, size, req.SourceURL)
	} else {
		httpReq, err = c.generationRequest(ctx, prompt, size)
	}
	if err != nil {
		return imagegen.Image{}, err
	}

	img, err := c.do(httpReq)
	fields := map[string]any{
		"model":       c.model,
		"edit":        req.SourceURL != "",
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("imagegen.failed", fields)
		return imagegen.Image{}, err
	}
	telemetry.Info("imagegen.completed", fields)
	return img, nil
}

func (c *Client) generationRequest(ctx context.Context, prompt, size string) (*http.Request, error) {
	payload, err := json.Marshal(generationRequest{Model: c.model, Prompt: prompt, N: 1, Size: size})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return req, nil
}

func (c *Client) editRequest(ctx context.Context, prompt, size, sourceURL string) (*http.Request, error) {
	source, err := c.fetchSource(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range map[string]string{"model": c.model, "prompt": prompt, "n": "1", "size": size} {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := w.CreateFormFile("image", "source.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(source); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/images/edits", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)
	return req, nil
}

func (c *Client) fetchSource(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("source image: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("source image: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("source image larger than %d bytes", maxSourceBytes)
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) do(req *http.Request) (imagegen.Image, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return imagegen.Image{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return imagegen.Image{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return imagegen.Image{}, err
	}
	var parsed imagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return imagegen.Image{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return imagegen.Image{}, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return imagegen.Image{}, fmt.Errorf("openai status %d", resp.StatusCode)
	}
	if len(parsed.Data) == 0 {
		return imagegen.Image{}, fmt.Errorf("openai response missing data")
	}
	first := parsed.Data[0]
	switch {
	case first.B64JSON != "":
		return imagegen.Image{URL: "data:image/png;base64," + first.B64JSON, MimeType: "image/png"}, nil
	case first.URL != "":
		return imagegen.Image{URL: first.URL, MimeType: "image/png"}, nil
	}
	return imagegen.Image{}, fmt.Errorf("openai response empty image")
}

var _ imagegen.Generator = (*Client)(nil)
