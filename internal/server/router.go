// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ayush/taskmanager/internal/auth"
	"github.com/ayush/taskmanager/internal/middleware"
	"github.com/ayush/taskmanager/internal/tasks"
	"github.com/ayush/taskmanager/internal/timetable"
	"github.com/ayush/taskmanager/internal/web"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Log          *zap.Logger
	Auth         *auth.Service
	Tasks        *tasks.Service
	Timetable    *timetable.Service
	Metrics      *middleware.Metrics
	CORSOrigins  []string
	SecureCookie bool
}

func NewRouter(d Deps) (http.Handler, error) {
	rn, err := web.NewRenderer(d.Log)
	if err != nil {
		return nil, err
	}
	authHandler := auth.NewHandler(d.Auth, rn, d.SecureCookie)
	taskHandler := tasks.NewHandler(d.Tasks, rn)
	timetableHandler := timetable.NewHandler(d.Timetable, rn)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.MethodOverride)
	r.Use(middleware.LoadSession(d.Auth, d.Log))

	r.NotFound(rn.NotFound)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
	})

	// Auth routes (public)
	r.Group(authHandler.Routes)

	// Profile routes (protected)
	r.Route("/profile", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		authHandler.ProfileRoutes(r)
	})

	// Tasks are scoped to the session's user, or to ownerless tasks when anonymous.
	r.Route("/tasks", taskHandler.Routes)
	r.Route("/timetable", timetableHandler.Routes)

	return r, nil
}
