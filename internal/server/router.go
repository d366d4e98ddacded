package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/handlers"
	"github.com/tasklane/apiserver/internal/logging"
	"github.com/tasklane/apiserver/internal/services"
)

// RouterDeps are the collaborators the HTTP API dispatches to.
type RouterDeps struct {
	AuthService    *services.AuthService
	TaskService    *services.TaskService
	Logger         logrus.FieldLogger
	AllowedOrigins []string
	// AuthLimiter guards register and login. Nil disables it.
	AuthLimiter func(http.Handler) http.Handler
	Started     time.Time
}

// NewRouter builds the chi router with the API routes mounted under /api.
func NewRouter(deps RouterDeps) *chi.Mux {
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	started := deps.Started
	if started.IsZero() {
		started = time.Now()
	}

	router := chi.NewRouter()
	router.Use(
		handlers.CapturePeer,
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(deps.Logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			MaxAge:         300,
		}),
	)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health(started))
		r.Route("/users", func(r chi.Router) {
			handlers.AuthRouter(r, deps.AuthService, deps.Logger, deps.AuthLimiter)
		})
		r.Route("/tasks", func(r chi.Router) {
			handlers.TaskRouter(r, deps.TaskService, deps.Logger, handlers.RequireAuth(deps.AuthService))
		})
	})

	return router
}
