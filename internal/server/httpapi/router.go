package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 30 * time.Second

// NewRouter mounts every route. Only /users/* and /health are public.
func NewRouter(h *Handler, v TokenVerifier, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Use(h.requireAuth(v))

		r.Post("/", h.OpenAccount)
		r.Get("/", h.ListAccounts)

		r.Route("/{accountId}", func(r chi.Router) {
			r.Post("/deposit", h.moveFunds(h.ledger.Deposit))
			r.Post("/withdraw", h.moveFunds(h.ledger.Withdraw))
			r.Post("/transfer", h.Transfer)
			r.Get("/transactions", h.Transactions)
			r.Get("/balance", h.Balance)
			r.Post("/statements", h.ExportStatement)
		})
	})

	return r
}
