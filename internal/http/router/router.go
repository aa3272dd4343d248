// Package router assembles the HTTP surface of the booking API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/diagnosis/trainer-bookings/internal/http/handlers"
	authmw "github.com/diagnosis/trainer-bookings/internal/http/middleware"
	"github.com/diagnosis/trainer-bookings/internal/platform/auth"
	"github.com/diagnosis/trainer-bookings/internal/service"
	"github.com/diagnosis/trainer-bookings/pkg/metrics"
	mw "github.com/diagnosis/trainer-bookings/pkg/middleware"
)

type Deps struct {
	Workflow       *service.Workflow
	Tokens         authmw.TokenParser
	DB             handlers.Pinger
	LoginLimiter   *authmw.RateLimiter // nil disables limiting
	AllowedOrigins []string
}

func New(d Deps) http.Handler {
	authH := handlers.NewAuthHandler(d.Workflow)
	clientH := handlers.NewClientBookingsHandler(d.Workflow)
	adminH := handlers.NewAdminHandler(d.Workflow)
	limit := d.LoginLimiter.Middleware()

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("trainer-bookings"))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Metrics)

	r.Get("/healthz", handlers.Health(d.DB))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/login", authH.AdminLogin)

		r.Route("/client", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.With(limit).Post("/login", authH.Login)

			r.Route("/bookings", func(r chi.Router) {
				r.Use(authmw.RequireRole(d.Tokens, auth.RoleClient))
				r.Post("/", clientH.Create)
				r.Get("/", clientH.List)
				r.Put("/{id}", clientH.Update)
				r.Delete("/{id}", clientH.Delete)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.With(authmw.OptionalClient(d.Tokens)).Post("/", clientH.Create)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(d.Tokens, auth.RoleAdmin))
				r.Get("/", adminH.ListAll)
				r.Patch("/{id}/status", adminH.UpdateStatus)
				r.Delete("/{id}", adminH.Delete)
			})
		})

		r.With(authmw.RequireRole(d.Tokens, auth.RoleAdmin)).Get("/users", adminH.Users)
	})

	return r
}
