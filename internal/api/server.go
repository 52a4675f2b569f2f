package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ric-center/planner/internal/auth"
	"github.com/ric-center/planner/internal/config"
	"github.com/ric-center/planner/internal/planner"
	"github.com/ric-center/planner/internal/session"
	"github.com/ric-center/planner/internal/wizard"
)

// Server represents the HTTP API server
type Server struct {
	config     config.ServerConfig
	router     *chi.Mux
	planner    *planner.Manager
	auth       *auth.Manager
	sessions   session.Store
	sessionTTL time.Duration
	wizards    *wizard.Registry
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager *planner.Manager,
	authManager *auth.Manager,
	sessions session.Store,
	sessionTTL time.Duration,
	wizards *wizard.Registry,
) *Server {
	s := &Server{
		config:     cfg,
		planner:    manager,
		auth:       authManager,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		wizards:    wizards,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		// Account entry points stay open; everything else needs a session
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", s.handleListEvents)
				r.With(s.requireOrganizer).Post("/", s.handleSaveEvent)

				r.Route("/{eventID}", func(r chi.Router) {
					r.Get("/", s.handleGetEvent)
					r.With(s.requireOrganizer).Put("/", s.handleSaveEvent)
					r.With(s.requireOrganizer).Delete("/", s.handleDeleteEvent)
					r.Get("/directions", s.handleListDirections)
					r.With(s.requireOrganizer).Put("/directions", s.handleSaveDirections)
				})
			})

			r.Route("/directions/{directionID}", func(r chi.Router) {
				r.Get("/", s.handleGetDirection)
				r.Get("/projects", s.handleListProjects)
				r.With(s.requireOrganizer).Put("/projects", s.handleSaveProjects)
			})

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", s.handleListApplications)
				r.Post("/", s.handleSubmitApplication)
				r.Get("/watch", s.handleWatchApplications)
				r.With(s.requireOrganizer).Put("/{id}/status", s.handleUpdateApplicationStatus)
				r.Delete("/{id}", s.handleWithdrawApplication)
			})

			r.Get("/specializations", s.handleListSpecializations)
			r.Get("/users", s.handleListUsers)

			r.Route("/wizards", func(r chi.Router) {
				r.Use(s.requireOrganizer)
				r.Post("/", s.handleStartWizard)
				r.Get("/{id}", s.handleGetWizard)
				r.Post("/{id}/tab", s.handleActivateWizardTab)
				r.Delete("/{id}", s.handleCloseWizard)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
