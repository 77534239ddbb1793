package memory

import (
	"context"
	"sync"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
)

// DefaultCapacity is the ring size used when New is given a non-positive size.
const DefaultCapacity = 500

// Store is an in-memory DiagnosticStore that keeps the most recent records
// in a fixed-size ring.
type Store struct {
	mu    sync.RWMutex
	ring  []*storage.Diagnostic
	next  int
	count int
}

var _ storage.DiagnosticStore = (*Store)(nil)

// New creates a store holding at most capacity records.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{ring: make([]*storage.Diagnostic, capacity)}
}

func (s *Store) Record(ctx context.Context, d *storage.Diagnostic) error {
	storage.Prepare(d)
	stored := *d

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring[s.next] = &stored
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}
	return nil
}

func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*storage.Diagnostic{}
	for i := 1; i <= s.count; i++ {
		d := s.ring[(s.next-i+len(s.ring))%len(s.ring)]
		if opts.Kind != "" && d.Kind != opts.Kind {
			continue
		}
		copied := *d
		result = append(result, &copied)
		if opts.Limit > 0 && len(result) == opts.Limit {
			break
		}
	}
	return result, nil
}

func (s *Store) Close() error {
	return nil
}
