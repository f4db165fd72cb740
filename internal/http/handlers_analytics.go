package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/reconcile"
)

type periodResponse struct {
	Period core.Period    `json:"period"`
	Range  core.DateRange `json:"range"`
}

type importRequest struct {
	Transactions   []core.CreateRequest `json:"transactions"`
	SkipDuplicates bool                 `json:"skipDuplicates"`
	Async          bool                 `json:"async"`
}

type importAccepted struct {
	BatchID string `json:"batchId"`
	Count   int    `json:"count"`
}

func (s *Server) handleCardFacet(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cards, err := s.svc.CardsForDateRange(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCategoryFacet(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories, err := s.svc.CategoriesForDateRange(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.svc.CategoryTotals(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.svc.Analytics(r.Context(), f, s.currencyFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.svc.Overview(r.Context(), f, s.currencyFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleResolvePeriod(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "period")
	custom := query.ParseFilter(r.URL.Query()).DateRange
	rng, err := s.resolver.Lookup(name, custom)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, periodResponse{Period: core.Period(name), Range: rng})
}

func (s *Server) handleLabelPeriod(w http.ResponseWriter, r *http.Request) {
	rng := query.ParseFilter(r.URL.Query()).DateRange
	if rng == nil {
		writeError(w, r, fmt.Errorf("%w: start and end are required", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, periodResponse{Period: s.resolver.Label(*rng), Range: *rng})
}

func (s *Server) handleFindDuplicates(w http.ResponseWriter, r *http.Request) {
	var q query.DuplicateQuery
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	q.Date = sanitizeInput(q.Date)
	q.Card = sanitizeInput(q.Card)
	txs, err := s.svc.FindPotentialDuplicates(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleImport reconciles a batch inline, or queues it for the worker when
// async is requested and a publisher is configured.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for i := range req.Transactions {
		sanitizeRequest(&req.Transactions[i])
		if req.Transactions[i].Currency == "" {
			req.Transactions[i].Currency = s.defaultCurrency
		}
	}

	if req.Async && s.imports != nil {
		for i, tx := range req.Transactions {
			if err := tx.Validate(); err != nil {
				writeError(w, r, fmt.Errorf("import request %d: %w", i, err))
				return
			}
		}
		msg := amqp.NewImportBatchMessage(req.Transactions, req.SkipDuplicates)
		if err := s.imports.PublishImportBatch(r.Context(), msg); err != nil {
			writeError(w, r, fmt.Errorf("queue import: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, importAccepted{BatchID: msg.BatchID, Count: len(msg.Transactions)})
		return
	}

	result, err := s.svc.Import(r.Context(), req.Transactions, reconcile.Options{SkipDuplicates: req.SkipDuplicates})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if len(result.Created) > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
