package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joaobarbosa/cinema-api/app"
	"github.com/joaobarbosa/cinema-api/middleware"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	authMW := deps.AuthMiddleware
	adminOnly := authMW.RequireRole(models.RoleAdmin)

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every request is resolved to a principal or stays anonymous; the
	// per-route guards below decide what anonymous callers may reach.
	r.Use(authMW.Authenticate)
	r.Use(middleware.AuditContext)

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.With(authMW.RequireAuth, adminOnly).Post("/register", deps.AuthHandler.HandleRegister)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/me", deps.AuthHandler.HandleMe)
			r.With(adminOnly).Get("/", deps.AuthHandler.HandleListUsers)
		})

		// Movies are browsable anonymously
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", deps.MovieHandler.HandleList)
			r.Get("/{id}", deps.MovieHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAuth, adminOnly)
				r.Post("/", deps.MovieHandler.HandleCreate)
				r.Put("/{id}", deps.MovieHandler.HandleUpdate)
				r.Delete("/{id}", deps.MovieHandler.HandleDelete)
			})
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/", deps.RoomHandler.HandleList)
			r.Get("/{id}", deps.RoomHandler.HandleGet)
			r.Get("/{id}/seats", deps.RoomHandler.HandleSeats)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", deps.RoomHandler.HandleCreate)
				r.Put("/{id}", deps.RoomHandler.HandleUpdate)
				r.Delete("/{id}", deps.RoomHandler.HandleDelete)
			})
		})

		r.Route("/seats", func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/", deps.SeatHandler.HandleList)
			r.Get("/{id}", deps.SeatHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", deps.SeatHandler.HandleCreate)
				r.Put("/{id}", deps.SeatHandler.HandleUpdate)
				r.Delete("/{id}", deps.SeatHandler.HandleDelete)
			})
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Use(authMW.RequireAuth, adminOnly)
			r.Get("/", deps.CouponHandler.HandleList)
			r.Post("/", deps.CouponHandler.HandleCreate)
			r.Post("/{id}/deactivate", deps.CouponHandler.HandleDeactivate)
		})

		// Ownership of individual orders is enforced by the order service
		r.Route("/orders", func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/", deps.OrderHandler.HandleList)
			r.Post("/", deps.OrderHandler.HandleCreate)
			r.Get("/{id}", deps.OrderHandler.HandleGet)
			r.Post("/{id}/coupon", deps.OrderHandler.HandleApplyCoupon)
			r.Post("/{id}/pay", deps.OrderHandler.HandlePay)
			r.Post("/{id}/cancel", deps.OrderHandler.HandleCancel)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(authMW.RequireAuth, adminOnly)
			r.Get("/logs", deps.AuditHandler.HandleList)
			r.Get("/logs/{id}", deps.AuditHandler.HandleGet)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
