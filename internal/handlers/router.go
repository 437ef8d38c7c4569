package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	mw "interntrack/internal/middleware"
)

// Router bundles everything the HTTP surface is built from.
type Router struct {
	Auth        *AuthHandler
	Journals    *JournalHandler
	Progress    *ProgressHandler
	Compilation *CompilationHandler
	Events      *EventHandler
	AI          *AIHandler
	Health      *HealthHandler

	AuthMW         *mw.AuthMiddleware
	AuthLimiter    *mw.RateLimiter
	AllowedOrigins []string
	Logger         *zap.Logger
}

func (rt Router) Handler() http.Handler {
	origins := rt.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.ZapRequestLogger(rt.Logger))
	r.Use(mw.Recoverer(rt.Logger))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", rt.Health.Get)
		api.Group(func(auth chi.Router) {
			if rt.AuthLimiter != nil {
				auth.Use(rt.AuthLimiter.Limit)
			}
			auth.Post("/auth/register", rt.Auth.Register)
			auth.Post("/auth/login", rt.Auth.Login)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(rt.AuthMW.RequireAuth)

			pr.Get("/auth/me", rt.Auth.GetMe)
			pr.Put("/auth/me", rt.Auth.UpdateMe)

			pr.Route("/journals", func(j chi.Router) {
				j.Get("/", rt.Journals.List)
				j.Post("/", rt.Journals.Save)
				j.Get("/export", rt.Journals.Export)
				j.Post("/log-hours", rt.Journals.LogHours)
				j.Post("/finish-day", rt.Journals.FinishDay)
				j.Get("/{date}", rt.Journals.GetByDate)
			})

			pr.Get("/progress", rt.Progress.Get)

			pr.Route("/compilation", func(c chi.Router) {
				c.Get("/status", rt.Compilation.Status)
				c.Post("/compile", rt.Compilation.Compile)
				c.Get("/download", rt.Compilation.Download)
			})

			pr.Route("/events", func(e chi.Router) {
				e.Get("/", rt.Events.List)
				e.Post("/", rt.Events.Create)
				e.Put("/{id}", rt.Events.Update)
				e.Delete("/{id}", rt.Events.Delete)
			})

			pr.Post("/ai/refine", rt.AI.Refine)
			pr.Post("/ai/aras", rt.AI.Structure)
		})
	})
	return r
}
