package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authService "github.com/sameearif/JourneyLens/internal/service/auth"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

// Handler serves account signup and login.
type Handler struct {
	authSvc *authService.Service
}

// New creates the auth handler.
func New(authSvc *authService.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes mounts the auth endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		FullName string `json:"fullname"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	payload.FullName = strings.TrimSpace(payload.FullName)
	if payload.Username == "" || payload.FullName == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "username, fullname and password are required")
		return
	}

	user, token, err := h.authSvc.Signup(r.Context(), payload.Username, payload.FullName, payload.Password)
	if err != nil {
		if errors.Is(err, authService.ErrUsernameTaken) {
			utils.RespondError(w, http.StatusConflict, "Username already exists")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authSvc.Login(r.Context(), strings.TrimSpace(payload.Username), payload.Password)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}
