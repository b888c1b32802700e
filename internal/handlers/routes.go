package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/benx421/ledger-bank/internal/api"
	"github.com/benx421/ledger-bank/internal/config"
	"github.com/benx421/ledger-bank/internal/middleware"
)

// NewRouter wires the middleware chain and every route onto a chi router.
func NewRouter(
	h *Handler,
	idempotency middleware.IdempotencyStore,
	tokens middleware.TokenVerifier,
	cfg *config.ServerConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Idempotent-Replayed", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	api.RegisterDocsRoutes(r)
	r.Get("/health", h.GetHealth)

	r.Post("/auth/login", h.Login)
	r.Post("/user/register", h.RegisterUser)
	r.Put("/user/verify-user", h.VerifyUser)
	r.Post("/user/resend-verification", h.ResendVerification)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens))

		r.Get("/user", h.GetUser)
		r.Post("/account/create-account", h.CreateAccount)

		r.Route("/transaction", func(r chi.Router) {
			r.Use(middleware.Idempotency(idempotency, logger))

			r.Post("/fund-account", h.FundAccount)
			r.Post("/withdraw-fund", h.WithdrawFund)
			r.Post("/transfer-fund", h.TransferFund)
			r.Get("/history", h.TransactionHistory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Status: statusError, Message: "Route not found."})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Status: statusError, Message: "Method not allowed."})
	})

	return r
}
