package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sameearif/JourneyLens/internal/config"
)

// ErrDisabled means no image provider credentials are configured.
var ErrDisabled = errors.New("image generation is not configured")

const styleReferenceSuffix = " (Style reference: generate an image consistent with the previous visual context)"

// Generator produces an image for a prompt, optionally anchored to a
// reference image for character consistency.
type Generator interface {
	Generate(ctx context.Context, prompt, referenceImage string) (string, error)
}

// Client talks to a Together-compatible image generation endpoint. Requests
// pass through a shared rate limiter so pipeline bursts stay within the
// provider quota.
type Client struct {
	cfg     config.ImageConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds an image client from the configuration.
func NewClient(cfg config.ImageConfig) *Client {
	perSecond := rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	if cfg.RatePerMinute <= 0 {
		perSecond = rate.Inf
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter: rate.NewLimiter(perSecond, 1),
	}
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Steps          int    `json:"steps"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
	ImageURL       string `json:"image_url,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// Generate renders one image and returns it as a data URI, or the provider's
// URL when no payload is inlined. A non-empty referenceImage switches to the
// reference-capable model so the character stays consistent across scenes.
func (c *Client) Generate(ctx context.Context, prompt, referenceImage string) (string, error) {
	if !c.cfg.Enabled() {
		return "", ErrDisabled
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for image rate limit: %w", err)
	}

	reqBody := generationRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		Width:          c.cfg.Width,
		Height:         c.cfg.Height,
		Steps:          4,
		N:              1,
		ResponseFormat: "b64_json",
	}
	if referenceImage != "" {
		reqBody.Model = c.cfg.ReferenceModel
		reqBody.Steps = 28
		reqBody.ImageURL = referenceImage
		reqBody.Prompt = prompt + styleReferenceSuffix
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode image request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call image API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("model", reqBody.Model).Msg("image API error")
		return "", fmt.Errorf("image API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded generationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return "", fmt.Errorf("image API returned no images")
	}

	if decoded.Data[0].B64JSON != "" {
		return "data:image/png;base64," + decoded.Data[0].B64JSON, nil
	}
	if decoded.Data[0].URL != "" {
		return decoded.Data[0].URL, nil
	}
	return "", fmt.Errorf("image API returned an empty image entry")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
