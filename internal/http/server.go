// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/amqp"
	applog "ledger/internal/log"
	"ledger/internal/period"
	"ledger/internal/services"
)

// ImportPublisher hands an import batch to the background worker.
type ImportPublisher interface {
	PublishImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error
}

// Options configures optional server behaviour.
type Options struct {
	DefaultCurrency string
	// RateLimit caps mutating requests per client and minute; 0 disables it.
	RateLimit int
	Logger    *applog.Logger
	// Imports enables asynchronous imports; nil means imports always run inline.
	Imports ImportPublisher
}

// Server is an http.Server with the ledger routes mounted.
type Server struct {
	http.Server
	svc             *services.TransactionService
	resolver        *period.Resolver
	defaultCurrency string
	imports         ImportPublisher
	rateLimiter     *rateLimiter
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.TransactionService, resolver *period.Resolver, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	currency := opts.DefaultCurrency
	if currency == "" {
		currency = "EUR"
	}

	s := &Server{
		svc:             svc,
		resolver:        resolver,
		defaultCurrency: currency,
		imports:         opts.Imports,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(applog.Middleware(logger))
	r.Use(applog.RequestIDMiddleware(middleware.GetReqID))
	r.Use(applog.AccessLog(extractClientIP))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	if opts.RateLimit > 0 {
		s.rateLimiter = newRateLimiter(opts.RateLimit, nil)
		go s.rateLimiter.startCleanup()
		r.Use(s.rateLimiter.middleware)
	}

	r.Get("/healthz", handleHealth)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", s.handleListTransactions)
		r.Post("/", s.handleCreateTransaction)
		r.Delete("/", s.handleClearTransactions)
		r.Get("/count", s.handleCountTransactions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTransaction)
			r.Patch("/", s.handleUpdateTransaction)
			r.Delete("/", s.handleDeleteTransaction)
			r.Post("/archive", s.handleArchiveTransaction)
			r.Post("/unarchive", s.handleUnarchiveTransaction)
		})
	})

	r.Get("/facets/cards", s.handleCardFacet)
	r.Get("/facets/categories", s.handleCategoryFacet)
	r.Get("/categories/totals", s.handleCategoryTotals)
	r.Get("/analytics", s.handleAnalytics)
	r.Get("/overview", s.handleOverview)
	r.Get("/periods/label", s.handleLabelPeriod)
	r.Get("/periods/{period}", s.handleResolvePeriod)
	r.Post("/duplicates", s.handleFindDuplicates)
	r.Post("/import", s.handleImport)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
