package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sameearif/JourneyLens/internal/config"
	"github.com/sameearif/JourneyLens/internal/model/user"
	"github.com/sameearif/JourneyLens/internal/repository"
	authService "github.com/sameearif/JourneyLens/internal/service/auth"
)

type memoryUsers struct {
	byUsername map[string]*user.User
}

func (m *memoryUsers) Create(_ context.Context, u *user.User) (*user.User, error) {
	if _, exists := m.byUsername[u.Username]; exists {
		return nil, repository.ErrUsernameTaken
	}
	created := *u
	created.ID = uuid.NewString()
	m.byUsername[u.Username] = &created
	return &created, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func newTestRouter() http.Handler {
	users := &memoryUsers{byUsername: make(map[string]*user.User)}
	svc := authService.NewService(users, config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1})

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignupCreatesAccount(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/auth/signup",
		`{"username":"elena","fullname":"Elena Park","password":"hunter22"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Token == "" {
		t.Error("expected a session token")
	}
	if payload.User.Username != "elena" {
		t.Errorf("unexpected username: %s", payload.User.Username)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash leaked in response")
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	router := newTestRouter()

	doJSON(t, router, http.MethodPost, "/auth/signup",
		`{"username":"elena","fullname":"Elena Park","password":"hunter22"}`)
	rec := doJSON(t, router, http.MethodPost, "/auth/signup",
		`{"username":"elena","fullname":"Other","password":"pass"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Username already exists") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/auth/signup", `{"username":"","password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter()

	doJSON(t, router, http.MethodPost, "/auth/signup",
		`{"username":"elena","fullname":"Elena Park","password":"hunter22"}`)
	rec := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"username":"elena","password":"wrong"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username or password") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestLoginSuccess(t *testing.T) {
	router := newTestRouter()

	doJSON(t, router, http.MethodPost, "/auth/signup",
		`{"username":"elena","fullname":"Elena Park","password":"hunter22"}`)
	rec := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"username":"elena","password":"hunter22"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
