// Package handlers exposes the ledger over HTTP.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/transaction"
	"go.opentelemetry.io/otel/trace"
)

// APIMux builds the router of the service.
func APIMux(s *Server, tracer trace.Tracer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middlewareWeb(tracer))
	r.Use(s.middlewareLog)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/readiness", s.Readiness)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.ListClients)
			r.Post("/", s.CreateClient)
			r.Get("/{wallet}", s.GetClient)
			r.Put("/{wallet}", s.ReplaceClient)
			r.Patch("/{wallet}", s.PatchClient)
			r.Delete("/{wallet}", s.DeleteClient)
			r.Get("/{wallet}/transactions", s.ListClientTransactions)
			r.Get("/{wallet}/transactions/{guid}", s.RedirectClientTransaction)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.ListTransactions)
			r.Post("/", s.CreateTransaction)
			r.Get("/{guid}", s.GetTransaction)
			r.Delete("/{guid}", s.DeleteTransaction)
		})
	})

	return r
}

type Server struct {
	log         *slog.Logger
	client      *client.Core
	transaction *transaction.Core
	check       func(ctx context.Context) error
}

// NewServer wires the cores to the HTTP layer. check reports whether the
// service is ready to take traffic.
func NewServer(log *slog.Logger, c *client.Core, t *transaction.Core, check func(ctx context.Context) error) *Server {
	return &Server{
		log:         log,
		client:      c,
		transaction: t,
		check:       check,
	}
}

func (s *Server) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := s.check(r.Context()); err != nil {
		s.log.ErrorContext(r.Context(), "readiness", "ERROR", err)
		respondError(w, http.StatusServiceUnavailable, "not ready")
		return
	}

	respond(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
