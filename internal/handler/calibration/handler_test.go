package calibration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sameearif/JourneyLens/internal/middleware"
	"github.com/sameearif/JourneyLens/internal/model/chat"
	"github.com/sameearif/JourneyLens/internal/model/story"
	"github.com/sameearif/JourneyLens/internal/model/user"
	"github.com/sameearif/JourneyLens/internal/model/vision"
	calibrationService "github.com/sameearif/JourneyLens/internal/service/calibration"
)

type staticVerifier struct{ userID string }

func (v staticVerifier) VerifyToken(string) (string, error) { return v.userID, nil }

type staticUsers struct{}

func (staticUsers) GetByID(context.Context, string) (*user.User, error) {
	return &user.User{ID: "user-1", Username: "elena", FullName: "Elena Park"}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, _ string, _ []chat.Message, _ string) (string, error) {
	return "What does success look like for you?", nil
}

type noopImages struct{}

func (noopImages) Generate(context.Context, string, string) (string, error) { return "", nil }

type noopVisions struct{}

func (noopVisions) Create(_ context.Context, userID string, d *vision.Draft) (*vision.Vision, error) {
	return &vision.Vision{ID: "vision-1", UserID: userID, Title: d.Title}, nil
}

type noopStories struct{}

func (noopStories) Create(_ context.Context, visionID string, ch story.Chapter, _ []story.ChapterImage, _ []story.ImageDescription) (*story.Story, error) {
	return &story.Story{ID: "story-1", VisionID: visionID}, nil
}

func newTestRouter() http.Handler {
	svc := calibrationService.NewService(calibrationService.NewStore(), echoGenerator{}, noopImages{}, noopVisions{}, noopStories{})

	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(staticVerifier{userID: "user-1"}))
	New(svc, staticUsers{}).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, router http.Handler) calibrationService.Snapshot {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/calibration/sessions", `{}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var snapshot calibrationService.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return snapshot
}

func TestCreateSessionSeedsIntro(t *testing.T) {
	router := newTestRouter()
	snapshot := createSession(t, router)

	if snapshot.ID == "" {
		t.Fatal("expected a session id")
	}
	if len(snapshot.Messages) != 1 {
		t.Fatalf("expected 1 seeded message, got %d", len(snapshot.Messages))
	}
	if snapshot.Messages[0].Sender != chat.SenderAI {
		t.Errorf("intro message should come from the assistant")
	}
}

func TestPostMessageReturnsReply(t *testing.T) {
	router := newTestRouter()
	snapshot := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/calibration/sessions/"+snapshot.ID+"/messages",
		`{"text":"I want to run a marathon"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result calibrationService.TurnResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Reply.Text != "What does success look like for you?" {
		t.Errorf("unexpected reply: %s", result.Reply.Text)
	}
	if len(result.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(result.Messages))
	}
}

func TestPostMessageUnknownSession(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/calibration/sessions/missing/messages", `{"text":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPostMessageRequiresText(t *testing.T) {
	router := newTestRouter()
	snapshot := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/calibration/sessions/"+snapshot.ID+"/messages", `{"text":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEditMessageReplaysTurn(t *testing.T) {
	router := newTestRouter()
	snapshot := createSession(t, router)

	doJSON(t, router, http.MethodPost, "/calibration/sessions/"+snapshot.ID+"/messages", `{"text":"first answer"}`)
	doJSON(t, router, http.MethodPost, "/calibration/sessions/"+snapshot.ID+"/messages", `{"text":"second answer"}`)

	rec := doJSON(t, router, http.MethodPut, "/calibration/sessions/"+snapshot.ID+"/messages/2",
		`{"text":"revised answer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result calibrationService.TurnResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Messages) != 3 {
		t.Fatalf("expected 3 messages after rewind, got %d", len(result.Messages))
	}
	if result.Messages[1].Text != "revised answer" {
		t.Errorf("edited text not applied: %s", result.Messages[1].Text)
	}
}

func TestRequestWithoutTokenRejected(t *testing.T) {
	svc := calibrationService.NewService(calibrationService.NewStore(), echoGenerator{}, noopImages{}, noopVisions{}, noopStories{})

	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(failingVerifier{}))
	New(svc, staticUsers{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/calibration/sessions", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

type failingVerifier struct{}

func (failingVerifier) VerifyToken(string) (string, error) {
	return "", context.DeadlineExceeded
}
