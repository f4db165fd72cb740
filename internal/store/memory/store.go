// Package memory is an in-process transaction store used for development
// and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/query"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	rev   int64
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithTransactions seeds the store. Seeded records keep their IDs;
// missing IDs are generated.
func NewWithTransactions(seed []core.Transaction) *Store {
	s := New()
	for _, t := range seed {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		s.items = append(s.items, t)
	}
	return s
}

func (s *Store) Create(_ context.Context, req core.CreateRequest) (core.Transaction, error) {
	if err := req.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t := core.NewTransaction(uuid.NewString(), s.now().UTC(), req)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	s.rev++
	return t, nil
}

func (s *Store) CreateMany(_ context.Context, reqs []core.CreateRequest) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(reqs))
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("create transaction %d: %w", i, err)
		}
		out = append(out, core.NewTransaction(uuid.NewString(), s.now().UTC(), req))
	}
	if len(out) == 0 {
		return out, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, out...)
	s.rev++
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		t := s.items[i]
		return &t, nil
	}
	return nil, nil
}

func (s *Store) FindAll(_ context.Context, filter *core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	snapshot := append([]core.Transaction(nil), s.items...)
	s.mu.Unlock()
	if filter == nil {
		return snapshot, nil
	}
	return query.Apply(snapshot, *filter), nil
}

func (s *Store) Update(_ context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, core.ErrNotFound)
	}
	s.items[i] = patch.Apply(s.items[i])
	s.rev++
	return s.items[i], nil
}

func (s *Store) SetArchived(_ context.Context, id string, archived bool) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("archive transaction %s: %w", id, core.ErrNotFound)
	}
	s.items[i].IsArchived = archived
	s.rev++
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.rev++
	}
	return nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.rev++
	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *Store) Revision(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev, nil
}

func (s *Store) Close() error { return nil }

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
