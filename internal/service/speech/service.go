package speech

import (
	"errors"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sameearif/JourneyLens/internal/config"
)

// Provider errors surfaced to handlers.
var (
	ErrTTSDisabled = errors.New("speech synthesis is not configured")
	ErrASRDisabled = errors.New("transcription is not configured")
)

// Service bundles text-to-speech and transcription behind shared HTTP
// plumbing. Synthesized audio is cached per text so replaying a chapter or
// chat message does not hit the provider again.
type Service struct {
	cfg      config.SpeechConfig
	http     *http.Client
	ttsCache *cache.Cache
}

// NewService builds the speech service from configuration.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{
		cfg:      cfg,
		http:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		ttsCache: cache.New(30*time.Minute, 10*time.Minute),
	}
}

// TTSEnabled reports whether synthesis is configured.
func (s *Service) TTSEnabled() bool { return s.cfg.TTSEnabled() }

// ASREnabled reports whether transcription is configured.
func (s *Service) ASREnabled() bool { return s.cfg.ASREnabled() }
