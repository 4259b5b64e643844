package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/middleware"
	"github.com/sameearif/JourneyLens/internal/repository"
	chapterService "github.com/sameearif/JourneyLens/internal/service/chapter"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

// Handler serves journal entries. Posting an entry also advances the story
// through the chapter service.
type Handler struct {
	chapterSvc *chapterService.Service
	visions    *repository.VisionRepository
	journals   *repository.JournalRepository
}

// New creates the journal handler.
func New(chapterSvc *chapterService.Service, visions *repository.VisionRepository, journals *repository.JournalRepository) *Handler {
	return &Handler{chapterSvc: chapterSvc, visions: visions, journals: journals}
}

// RegisterRoutes mounts the journal endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/visions/{visionID}/journals", h.handleList)
	r.Post("/visions/{visionID}/journals", h.handleCreate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	visionID := chi.URLParam(r, "visionID")

	if _, err := h.visions.Get(r.Context(), visionID, userID); err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to load vision")
		utils.RespondError(w, http.StatusInternalServerError, "could not load vision")
		return
	}

	journals, err := h.journals.List(r.Context(), visionID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list journals")
		utils.RespondError(w, http.StatusInternalServerError, "could not load journals")
		return
	}
	utils.RespondJSON(w, http.StatusOK, journals)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Text      string `json:"text"`
		EntryDate string `json:"entry_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	var entryDate time.Time
	if payload.EntryDate != "" {
		parsed, err := time.Parse("2006-01-02", payload.EntryDate)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "entry_date must be YYYY-MM-DD")
			return
		}
		entryDate = parsed
	}

	result, err := h.chapterSvc.AddEntry(r.Context(), userID, chi.URLParam(r, "visionID"), payload.Text, entryDate)
	if err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to save journal entry")
		utils.RespondError(w, http.StatusInternalServerError, "could not save journal entry")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}
