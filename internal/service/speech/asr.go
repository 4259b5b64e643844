package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Transcription is the recognized text of one audio clip.
type Transcription struct {
	Text string `json:"text"`
}

// Transcribe sends an audio clip to the transcription provider and returns
// the recognized text.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (*Transcription, error) {
	if !s.ASREnabled() {
		return nil, ErrASRDisabled
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("model", s.cfg.ASRModel); err != nil {
		return nil, fmt.Errorf("write transcription form: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("write transcription form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("write transcription form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize transcription form: %w", err)
	}

	url := strings.TrimRight(s.cfg.ASRBaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.cfg.ASRAPIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call transcription API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("transcription API error")
		return nil, fmt.Errorf("transcription API returned status %d", resp.StatusCode)
	}

	var result Transcription
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &result, nil
}
