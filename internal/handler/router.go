package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/sameearif/JourneyLens/internal/handler/auth"
	calibrationHandler "github.com/sameearif/JourneyLens/internal/handler/calibration"
	journalHandler "github.com/sameearif/JourneyLens/internal/handler/journal"
	speechHandler "github.com/sameearif/JourneyLens/internal/handler/speech"
	storyHandler "github.com/sameearif/JourneyLens/internal/handler/story"
	visionHandler "github.com/sameearif/JourneyLens/internal/handler/vision"
	"github.com/sameearif/JourneyLens/internal/middleware"
	"github.com/sameearif/JourneyLens/internal/repository"
	authService "github.com/sameearif/JourneyLens/internal/service/auth"
	calibrationService "github.com/sameearif/JourneyLens/internal/service/calibration"
	chapterService "github.com/sameearif/JourneyLens/internal/service/chapter"
	"github.com/sameearif/JourneyLens/internal/service/image"
	speechService "github.com/sameearif/JourneyLens/internal/service/speech"
	"github.com/sameearif/JourneyLens/pkg/utils"
)

// Deps carries the services and repositories the router wires together.
type Deps struct {
	Auth        *authService.Service
	Calibration *calibrationService.Service
	Chapter     *chapterService.Service
	Speech      *speechService.Service
	Images      image.Generator
	Users       *repository.UserRepository
	Visions     *repository.VisionRepository
	Journals    *repository.JournalRepository
	Stories     *repository.StoryRepository
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		authHandler.New(deps.Auth).RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(deps.Auth))

			calibrationHandler.New(deps.Calibration, deps.Users).RegisterRoutes(protected)
			visionHandler.New(deps.Visions).RegisterRoutes(protected)
			journalHandler.New(deps.Chapter, deps.Visions, deps.Journals).RegisterRoutes(protected)
			storyHandler.New(deps.Visions, deps.Stories, deps.Images).RegisterRoutes(protected)

			if deps.Speech != nil {
				speechHandler.New(deps.Speech).RegisterRoutes(protected)
			}
		})
	})

	return r
}
