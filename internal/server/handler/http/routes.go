package http

import (
	"net/http"

	"github.com/atinyakov/VoiceNotes/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes bounds request bodies; notes carry inline audio and images.
const MaxBodyBytes = 50 << 20

// NewRouter constructs the HTTP handler that serves the notes API.
//
// Routes:
//
//	GET    /healthz             → liveness probe
//	POST   /api/auth/register   → authHandler.Register
//	POST   /api/auth/login      → authHandler.Login
//	GET    /api/notes           → notesHandler.List   (bearer)
//	POST   /api/notes           → notesHandler.Create (bearer)
//	PUT    /api/notes/{id}      → notesHandler.Update (bearer)
//	DELETE /api/notes/{id}      → notesHandler.Delete (bearer)
func NewRouter(
	authHandler *AuthHandler,
	notesHandler *NotesHandler,
	authenticator middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.RequestSize(MaxBodyBytes))
	// Only allow request bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(authenticator, logger))
			r.Get("/notes", notesHandler.List)
			r.Post("/notes", notesHandler.Create)
			r.Put("/notes/{id}", notesHandler.Update)
			r.Delete("/notes/{id}", notesHandler.Delete)
		})
	})

	return r
}
