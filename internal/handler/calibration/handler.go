package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/middleware"
	"github.com/sameearif/JourneyLens/internal/model/user"
	calibrationService "github.com/sameearif/JourneyLens/internal/service/calibration"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

// UserLookup resolves the authenticated account, whose full name seeds the
// story's protagonist.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Handler serves the calibration conversation and its progress stream.
type Handler struct {
	calibrationSvc *calibrationService.Service
	users          UserLookup
}

// New creates the calibration handler.
func New(calibrationSvc *calibrationService.Service, users UserLookup) *Handler {
	return &Handler{calibrationSvc: calibrationSvc, users: users}
}

// RegisterRoutes mounts the calibration endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/calibration/sessions", h.handleCreateSession)
	r.Get("/calibration/sessions/{sessionID}", h.handleGetSession)
	r.Post("/calibration/sessions/{sessionID}/messages", h.handlePostMessage)
	r.Put("/calibration/sessions/{sessionID}/messages/{messageID}", h.handleEditMessage)
	r.Get("/calibration/sessions/{sessionID}/progress", h.handleProgress)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Session lost. Please log in again.")
		return
	}

	snapshot := h.calibrationSvc.StartSession(userID, u.FullName)
	utils.RespondJSON(w, http.StatusCreated, snapshot)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	snapshot, err := h.calibrationSvc.Store().Get(chi.URLParam(r, "sessionID"), userID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

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

	result, err := h.calibrationSvc.HandleTurn(r.Context(), chi.URLParam(r, "sessionID"), userID, payload.Text)
	if err != nil {
		if errors.Is(err, calibrationService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Msg("calibration turn failed")
		utils.RespondError(w, http.StatusBadGateway, "could not generate a reply")
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	messageID, err := strconv.Atoi(chi.URLParam(r, "messageID"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

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

	result, err := h.calibrationSvc.EditMessage(r.Context(), chi.URLParam(r, "sessionID"), userID, messageID, payload.Text)
	if err != nil {
		if errors.Is(err, calibrationService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Msg("calibration edit failed")
		utils.RespondError(w, http.StatusBadRequest, "could not edit message")
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleProgress streams pipeline progress events over SSE until the client
// disconnects or the session ends.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.calibrationSvc.Store().Get(sessionID, userID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "status", map[string]string{"message": "stream established"})

	events, cancel := h.calibrationSvc.Store().Subscribe(sessionID)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			utils.SendSSEEvent(w, flusher, "progress", event)
		}
	}
}
