package vision

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/middleware"
	visionModel "github.com/sameearif/JourneyLens/internal/model/vision"
	"github.com/sameearif/JourneyLens/internal/repository"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

// Handler serves vision reads, edits and deletion.
type Handler struct {
	visions *repository.VisionRepository
}

// New creates the vision handler.
func New(visions *repository.VisionRepository) *Handler {
	return &Handler{visions: visions}
}

// RegisterRoutes mounts the vision endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/visions", h.handleList)
	r.Get("/visions/{visionID}", h.handleGet)
	r.Put("/visions/{visionID}", h.handleUpdate)
	r.Delete("/visions/{visionID}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	visions, err := h.visions.List(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list visions")
		utils.RespondError(w, http.StatusInternalServerError, "could not load visions")
		return
	}
	utils.RespondJSON(w, http.StatusOK, visions)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	v, err := h.visions.Get(r.Context(), chi.URLParam(r, "visionID"), userID)
	if err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to load vision")
		utils.RespondError(w, http.StatusInternalServerError, "could not load vision")
		return
	}
	utils.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	visionID := chi.URLParam(r, "visionID")

	current, err := h.visions.Get(r.Context(), visionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to load vision")
		utils.RespondError(w, http.StatusInternalServerError, "could not load vision")
		return
	}

	// The request carries only the fields being changed; everything else
	// keeps its stored value.
	update := visionModel.Update{
		Title:                 current.Title,
		Description:           current.Description,
		CharacterDescription:  current.CharacterDescription,
		ImageURL:              current.ImageURL,
		StoryRunningSummary:   current.StoryRunningSummary,
		JournalRunningSummary: current.JournalRunningSummary,
		ChatHistory:           current.ChatHistory,
		LongTermTodos:         current.LongTermTodos,
		ShortTermTodos:        current.ShortTermTodos,
	}

	var payload struct {
		Title                 *string                 `json:"title"`
		Description           *string                 `json:"description"`
		CharacterDescription  *string                 `json:"character_description"`
		ImageURL              *string                 `json:"image_url"`
		StoryRunningSummary   *string                 `json:"story_running_summary"`
		JournalRunningSummary *string                 `json:"journal_running_summary"`
		LongTermTodos         *[]visionModel.TodoItem `json:"long_term_todos"`
		ShortTermTodos        *[]visionModel.TodoItem `json:"short_term_todos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Title != nil {
		update.Title = *payload.Title
	}
	if payload.Description != nil {
		update.Description = *payload.Description
	}
	if payload.CharacterDescription != nil {
		update.CharacterDescription = *payload.CharacterDescription
	}
	if payload.ImageURL != nil {
		update.ImageURL = *payload.ImageURL
	}
	if payload.StoryRunningSummary != nil {
		update.StoryRunningSummary = *payload.StoryRunningSummary
	}
	if payload.JournalRunningSummary != nil {
		update.JournalRunningSummary = *payload.JournalRunningSummary
	}
	if payload.LongTermTodos != nil {
		update.LongTermTodos = *payload.LongTermTodos
	}
	if payload.ShortTermTodos != nil {
		update.ShortTermTodos = *payload.ShortTermTodos
	}

	updated, err := h.visions.Update(r.Context(), visionID, userID, &update)
	if err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to update vision")
		utils.RespondError(w, http.StatusInternalServerError, "could not update vision")
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.visions.Delete(r.Context(), chi.URLParam(r, "visionID"), userID); err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to delete vision")
		utils.RespondError(w, http.StatusInternalServerError, "could not delete vision")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
