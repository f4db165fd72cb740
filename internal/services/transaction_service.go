// Package services provides the transaction state container used by the
// HTTP API and the worker.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"ledger/internal/analytics"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/reconcile"
	"ledger/internal/store"
)

// EventPublisher forwards store changes to other processes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, e core.Event) error
}

type (
	// AnalyticsReport is the aggregated view of a filtered transaction set.
	AnalyticsReport struct {
		Analytics analytics.AnalyticsData `json:"analytics"`
		Insights  []string                `json:"insights"`
	}

	// Overview bundles everything a dashboard needs from a single snapshot.
	Overview struct {
		Transactions []core.Transaction `json:"transactions"`
		Cards        []string           `json:"cards"`
		Categories   []string           `json:"categories"`
		Report       AnalyticsReport    `json:"report"`
	}

	// ImportResult summarises an import batch.
	ImportResult struct {
		Created []core.Transaction `json:"created"`
		Flagged int                `json:"flagged"`
		Skipped int                `json:"skipped"`
	}
)

// TransactionService wraps a repository with the post-condition checks,
// change notifications and analytics memoisation.
type TransactionService struct {
	repo      store.Repository
	publisher EventPublisher
	reports   cache.Cache[AnalyticsReport]

	mu          sync.Mutex
	subscribers map[int]func(core.Event)
	nextSubID   int
}

// NewTransactionService accepts a nil publisher and a nil cache.
func NewTransactionService(repo store.Repository, publisher EventPublisher, reports cache.Cache[AnalyticsReport]) *TransactionService {
	return &TransactionService{
		repo:        repo,
		publisher:   publisher,
		reports:     reports,
		subscribers: make(map[int]func(core.Event)),
	}
}

// Subscribe registers fn for every successful mutation and returns a
// function that removes it. fn runs synchronously on the mutating goroutine.
func (s *TransactionService) Subscribe(fn func(core.Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *TransactionService) Create(ctx context.Context, req core.CreateRequest) (core.Transaction, error) {
	t, err := s.repo.Create(ctx, req)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.emit(ctx, core.NewEvent(core.EventCreated, t.ID))
	return t, nil
}

// Get returns core.ErrNotFound when the id is absent.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	return *t, nil
}

func (s *TransactionService) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	txs, err := s.repo.FindAll(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.emit(ctx, core.NewEvent(core.EventUpdated, id))
	return t, nil
}

func (s *TransactionService) Archive(ctx context.Context, id string) (core.Transaction, error) {
	return s.setArchived(ctx, id, true)
}

func (s *TransactionService) Unarchive(ctx context.Context, id string) (core.Transaction, error) {
	return s.setArchived(ctx, id, false)
}

func (s *TransactionService) setArchived(ctx context.Context, id string, archived bool) (core.Transaction, error) {
	t, err := s.repo.SetArchived(ctx, id, archived)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("set archived: %w", err)
	}
	ev := core.EventArchived
	if !archived {
		ev = core.EventUnarchived
	}
	s.emit(ctx, core.NewEvent(ev, id))
	return t, nil
}

// Delete removes the transaction and re-reads it. A record that survives
// the delete yields core.ErrDeleteFailed. Deleting an absent id succeeds.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	still, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("verify delete: %w", err)
	}
	if still != nil {
		slog.ErrorContext(ctx, "Transaction still present after delete", "id", id)
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrDeleteFailed)
	}
	s.emit(ctx, core.NewEvent(core.EventDeleted, id))
	return nil
}

// ClearAll empties the store and re-counts it. Any remaining record yields
// core.ErrClearFailed.
func (s *TransactionService) ClearAll(ctx context.Context) error {
	if err := s.repo.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("verify clear: %w", err)
	}
	if n != 0 {
		slog.ErrorContext(ctx, "Transactions still present after clear", "count", n)
		return fmt.Errorf("clear transactions (%d remaining): %w", n, core.ErrClearFailed)
	}
	s.emit(ctx, core.NewEvent(core.EventCleared, ""))
	return nil
}

func (s *TransactionService) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *TransactionService) CardsForDateRange(ctx context.Context, r *core.DateRange) ([]string, error) {
	all, err := s.repo.FindAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return query.CardsForDateRange(all, r), nil
}

func (s *TransactionService) CategoriesForDateRange(ctx context.Context, r *core.DateRange) ([]string, error) {
	all, err := s.repo.FindAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return query.CategoriesForDateRange(all, r), nil
}

// CategoryTotals returns the overall breakdown of active transactions in r.
func (s *TransactionService) CategoryTotals(ctx context.Context, r *core.DateRange) ([]analytics.CategoryData, error) {
	txs, err := s.repo.FindAll(ctx, &core.Filter{DateRange: r})
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return analytics.CategoryTotals(txs), nil
}

// FindPotentialDuplicates checks q against every stored transaction,
// archived ones included.
func (s *TransactionService) FindPotentialDuplicates(ctx context.Context, q query.DuplicateQuery) ([]core.Transaction, error) {
	all, err := s.repo.FindAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	return query.FindPotentialDuplicates(all, q), nil
}

// Analytics aggregates the transactions matching f. Results are memoised
// per store revision, so writes from any process invalidate them.
func (s *TransactionService) Analytics(ctx context.Context, f core.Filter, currency string) (AnalyticsReport, error) {
	rev, err := s.repo.Revision(ctx)
	if err != nil {
		return AnalyticsReport{}, fmt.Errorf("analytics: %w", err)
	}
	key := reportKey(f, currency, rev)
	if s.reports != nil {
		if r, ok := s.reports.Get(key); ok {
			return r, nil
		}
	}
	txs, err := s.repo.FindAll(ctx, &f)
	if err != nil {
		return AnalyticsReport{}, fmt.Errorf("analytics: %w", err)
	}
	r := buildReport(txs, currency)
	s.remember(ctx, key, rev, r)
	return r, nil
}

// Overview reads the store once and derives the list, both facets and the
// analytics report concurrently from that snapshot.
func (s *TransactionService) Overview(ctx context.Context, f core.Filter, currency string) (Overview, error) {
	rev, err := s.repo.Revision(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}
	snapshot, err := s.repo.FindAll(ctx, nil)
	if err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Transactions = query.Apply(snapshot, f)
		return gctx.Err()
	})
	g.Go(func() error {
		out.Cards = query.CardsForDateRange(snapshot, f.DateRange)
		return gctx.Err()
	})
	g.Go(func() error {
		out.Categories = query.CategoriesForDateRange(snapshot, f.DateRange)
		return gctx.Err()
	})
	g.Go(func() error {
		key := reportKey(f, currency, rev)
		if s.reports != nil {
			if r, ok := s.reports.Get(key); ok {
				out.Report = r
				return nil
			}
		}
		out.Report = buildReport(query.Apply(snapshot, f), currency)
		s.remember(gctx, key, rev, out.Report)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}
	return out, nil
}

// Import reconciles requests against the stored transactions and creates
// the ones that are not skipped in a single repository write. An invalid
// request or a failed write creates nothing, so a retried batch never
// duplicates rows.
func (s *TransactionService) Import(ctx context.Context, requests []core.CreateRequest, opts reconcile.Options) (ImportResult, error) {
	for i, req := range requests {
		if err := req.Validate(); err != nil {
			return ImportResult{}, fmt.Errorf("import request %d: %w", i, err)
		}
	}

	existing, err := s.repo.FindAll(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}

	var result ImportResult
	pending := make([]core.CreateRequest, 0, len(requests))
	for _, d := range reconcile.Plan(existing, requests, opts) {
		if d.Request.IsDuplicate {
			result.Flagged++
		}
		if d.Skip {
			result.Skipped++
			continue
		}
		pending = append(pending, d.Request)
	}

	created, err := s.repo.CreateMany(ctx, pending)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	result.Created = created
	for _, t := range created {
		s.emit(ctx, core.NewEvent(core.EventImported, t.ID))
	}

	slog.InfoContext(ctx, "Import batch reconciled",
		"requested", len(requests),
		"created", len(result.Created),
		"flagged", result.Flagged,
		"skipped", result.Skipped)
	return result, nil
}

func buildReport(txs []core.Transaction, currency string) AnalyticsReport {
	data := analytics.Compute(txs)
	return AnalyticsReport{Analytics: data, Insights: analytics.GenerateInsights(data, currency)}
}

// remember caches r only when the store is still at rev, so a report built
// from a snapshot that raced a write is never stored.
func (s *TransactionService) remember(ctx context.Context, key string, rev int64, r AnalyticsReport) {
	if s.reports == nil || key == "" {
		return
	}
	now, err := s.repo.Revision(ctx)
	if err != nil || now != rev {
		return
	}
	s.reports.Set(key, r)
}

// reportKey encodes the filter as JSON so list items containing
// separators cannot collide.
func reportKey(f core.Filter, currency string, rev int64) string {
	b, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d|%s|%s", rev, currency, b)
}

// emit purges memoised reports, then notifies subscribers and the
// publisher. Publishing failures are logged and never fail the mutation.
func (s *TransactionService) emit(ctx context.Context, e core.Event) {
	if s.reports != nil {
		s.reports.Purge()
	}

	s.mu.Lock()
	subs := make([]func(core.Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", e.Type,
			"id", e.TransactionID,
			"error", err)
	}
}

// Close releases the repository.
func (s *TransactionService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	return nil
}
