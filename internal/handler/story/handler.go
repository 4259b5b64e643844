package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/middleware"
	"github.com/sameearif/JourneyLens/internal/repository"
	"github.com/sameearif/JourneyLens/internal/service/ai"
	"github.com/sameearif/JourneyLens/internal/service/image"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

// Handler serves story chapters and illustration regeneration.
type Handler struct {
	visions *repository.VisionRepository
	stories *repository.StoryRepository
	images  image.Generator
}

// New creates the story handler.
func New(visions *repository.VisionRepository, stories *repository.StoryRepository, images image.Generator) *Handler {
	return &Handler{visions: visions, stories: stories, images: images}
}

// RegisterRoutes mounts the story endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/visions/{visionID}/stories", h.handleList)
	r.Put("/visions/{visionID}/stories/{storyID}/image", h.handleRegenerateImage)
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

	stories, err := h.stories.List(r.Context(), visionID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list stories")
		utils.RespondError(w, http.StatusInternalServerError, "could not load stories")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stories)
}

// handleRegenerateImage re-renders a chapter's illustration, optionally with
// a caller-supplied prompt. The chapter number and any prompt the caller did
// not override stay as stored.
func (h *Handler) handleRegenerateImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	visionID := chi.URLParam(r, "visionID")
	storyID := chi.URLParam(r, "storyID")

	v, err := h.visions.Get(r.Context(), visionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrVisionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Vision not found")
			return
		}
		log.Error().Err(err).Msg("failed to load vision")
		utils.RespondError(w, http.StatusInternalServerError, "could not load vision")
		return
	}

	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.stories.Get(r.Context(), storyID, visionID)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Story not found")
			return
		}
		log.Error().Err(err).Msg("failed to load story")
		utils.RespondError(w, http.StatusInternalServerError, "could not load story")
		return
	}

	prompt := payload.Prompt
	if prompt == "" && len(current.ImageDescriptions) > 0 {
		prompt = current.ImageDescriptions[0].Prompt
	}
	if prompt == "" {
		prompt = ai.FallbackImagePrompt(current.DecodeChapter().Text, v.CharacterDescription)
	}

	combined := fmt.Sprintf("%s Keep the established character style: %s", prompt, v.CharacterDescription)
	img, err := h.images.Generate(r.Context(), combined, v.ImageURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to regenerate chapter image")
		utils.RespondError(w, http.StatusBadGateway, "could not generate image")
		return
	}

	updated, err := h.stories.UpdateImage(r.Context(), storyID, visionID, prompt, img)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Story not found")
			return
		}
		log.Error().Err(err).Msg("failed to save chapter image")
		utils.RespondError(w, http.StatusInternalServerError, "could not save image")
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}
