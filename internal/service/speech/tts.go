package speech

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// Synthesis is one rendered utterance.
type Synthesis struct {
	Audio       string `json:"audio"`
	ContentType string `json:"contentType"`
}

type ttsRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders text to MP3 audio and returns it base64-encoded.
// Identical texts are served from cache.
func (s *Service) Synthesize(ctx context.Context, text string) (*Synthesis, error) {
	if !s.TTSEnabled() {
		return nil, ErrTTSDisabled
	}

	key := ttsCacheKey(text)
	if cached, ok := s.ttsCache.Get(key); ok {
		return cached.(*Synthesis), nil
	}

	payload, err := json.Marshal(ttsRequest{
		Model:          s.cfg.TTSModel,
		Input:          text,
		Voice:          s.cfg.TTSVoice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	url := strings.TrimRight(s.cfg.TTSBaseURL, "/") + "/audio/speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.TTSAPIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call synthesis API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("synthesis API error")
		return nil, fmt.Errorf("synthesis API returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	result := &Synthesis{
		Audio:       base64.StdEncoding.EncodeToString(body),
		ContentType: contentType,
	}
	s.ttsCache.Set(key, result, cache.DefaultExpiration)
	return result, nil
}

func ttsCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
