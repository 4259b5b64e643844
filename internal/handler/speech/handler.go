package speech

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	speechService "github.com/sameearif/JourneyLens/internal/service/speech"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

const maxAudioBytes = 25 << 20

// Handler serves speech synthesis and transcription.
type Handler struct {
	speechSvc *speechService.Service
}

// New creates the speech handler.
func New(speechSvc *speechService.Service) *Handler {
	return &Handler{speechSvc: speechSvc}
}

// RegisterRoutes mounts the speech endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/speech/synthesize", h.handleSynthesize)
	r.Post("/speech/transcribe", h.handleTranscribe)
	r.Get("/speech/voice-note", h.handleVoiceNote)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.speechSvc.Synthesize(r.Context(), payload.Text)
	if err != nil {
		if errors.Is(err, speechService.ErrTTSDisabled) {
			utils.RespondError(w, http.StatusServiceUnavailable, "speech synthesis unavailable")
			return
		}
		log.Error().Err(err).Msg("speech synthesis failed")
		utils.RespondError(w, http.StatusBadGateway, "could not synthesize speech")
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "could not read audio")
		return
	}

	result, err := h.speechSvc.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		if errors.Is(err, speechService.ErrASRDisabled) {
			utils.RespondError(w, http.StatusServiceUnavailable, "transcription unavailable")
			return
		}
		log.Error().Err(err).Msg("transcription failed")
		utils.RespondError(w, http.StatusBadGateway, "could not transcribe audio")
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}
