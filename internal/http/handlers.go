package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/query"
)

const paramPeriod = "period"

// filterFrom decodes the URL filter. A period parameter overrides the
// start and end parameters unless it is "custom".
func (s *Server) filterFrom(r *http.Request) (core.Filter, error) {
	v := r.URL.Query()
	f := query.ParseFilter(v)
	if name := v.Get(paramPeriod); name != "" {
		rng, err := s.resolver.Lookup(name, f.DateRange)
		if err != nil {
			return core.Filter{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		f.DateRange = &rng
	}
	return f, nil
}

// rangeFrom returns the optional date range of a facet request.
func (s *Server) rangeFrom(r *http.Request) (*core.DateRange, error) {
	f, err := s.filterFrom(r)
	if err != nil {
		return nil, err
	}
	return f.DateRange, nil
}

func (s *Server) currencyFrom(r *http.Request) string {
	if c := strings.ToUpper(sanitizeInput(r.URL.Query().Get("currency"))); c != "" {
		return c
	}
	return s.defaultCurrency
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req core.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sanitizeRequest(&req)
	if req.Currency == "" {
		req.Currency = s.defaultCurrency
	}
	t, err := s.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransaction(r.Context(), applog.OpCreate, t.ID, t.Amount, t.Currency, t.Card, t.Category)
	w.Header().Set("Location", "/transactions/"+t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch core.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransaction(r.Context(), applog.OpUpdate, t.ID, t.Amount, t.Currency, t.Card, t.Category)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleArchiveTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUnarchiveTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Unarchive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCountTransactions(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
