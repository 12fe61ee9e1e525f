package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tradepost/go-marketplace/internal/api/auth"
	"github.com/tradepost/go-marketplace/internal/api/category"
	"github.com/tradepost/go-marketplace/internal/api/order"
	"github.com/tradepost/go-marketplace/internal/api/product"
)

// Config contains the dependencies needed for the router setup.
type Config struct {
	AuthHandler     *auth.AuthHandler
	ProductHandler  *product.ProductHandler
	CategoryHandler *category.CategoryHandler
	OrderHandler    *order.OrderHandler

	AuthenticateMiddleware func(http.Handler) http.Handler
	RequireAdminMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request ID, logger, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	// --- Public routes ---
	r.Group(func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Get("/product", cfg.ProductHandler.List)
		r.Get("/product/{id}", cfg.ProductHandler.Get)
	})

	// --- Protected routes ---
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		r.Get("/currentUser", cfg.AuthHandler.CurrentUser)

		r.Get("/category", cfg.CategoryHandler.List)

		r.Post("/product", cfg.ProductHandler.Create)
		r.Put("/product", cfg.ProductHandler.Update)
		r.Delete("/product/{id}", cfg.ProductHandler.Delete)

		r.Post("/order", cfg.OrderHandler.Create)
		r.Get("/order", cfg.OrderHandler.List)
		r.Get("/order/{id}", cfg.OrderHandler.Get)

		// --- Admin routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.RequireAdminMiddleware)
			r.Post("/category", cfg.CategoryHandler.Create)
		})
	})

	return r
}
