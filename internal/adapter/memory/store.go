// Package memory implements the storage collaborator in process memory.
// It honors the same conditional-write contracts as the Postgres adapter:
// every status change names the state it expects, and a mismatch returns
// domain.ErrConflict. Transactions serialize on a single mutex and roll back
// by restoring a copy of the tables.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

type usageKey struct {
	key string
	day time.Time
}

type tables struct {
	cases       map[uuid.UUID]*domain.Case
	codes       map[string]uuid.UUID
	verdicts    map[uuid.UUID]*domain.Verdict // keyed by case id
	appeals     map[uuid.UUID]*domain.Appeal
	usage       map[usageKey]int
	stats       map[string]*domain.IdentityStats
	transitions []domain.CaseTransition
}

// Stored values are never mutated in place, so a shallow copy of every map
// is a consistent snapshot.
func (t *tables) snapshot() tables {
	return tables{
		cases:       maps.Clone(t.cases),
		codes:       maps.Clone(t.codes),
		verdicts:    maps.Clone(t.verdicts),
		appeals:     maps.Clone(t.appeals),
		usage:       maps.Clone(t.usage),
		stats:       maps.Clone(t.stats),
		transitions: t.transitions[:len(t.transitions):len(t.transitions)],
	}
}

// Store is an in-memory database. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex
	t  tables
}

// New creates an empty store.
func New() *Store {
	return &Store{t: tables{
		cases:    make(map[uuid.UUID]*domain.Case),
		codes:    make(map[string]uuid.UUID),
		verdicts: make(map[uuid.UUID]*domain.Verdict),
		appeals:  make(map[uuid.UUID]*domain.Appeal),
		usage:    make(map[usageKey]int),
		stats:    make(map[string]*domain.IdentityStats),
	}}
}

type txKey struct{}

// RunInTx runs fn while holding the store lock. Writes made by fn are
// discarded if it returns an error or panics. Nested calls join the outer
// transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.t.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.t = saved
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.t = saved
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock acquires the store unless ctx already runs inside one of its
// transactions. The returned func releases what was acquired.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Cases returns the case repository view of the store.
func (s *Store) Cases() *Cases { return &Cases{s: s} }

// Verdicts returns the verdict repository view of the store.
func (s *Store) Verdicts() *Verdicts { return &Verdicts{s: s} }

// Appeals returns the appeal repository view of the store.
func (s *Store) Appeals() *Appeals { return &Appeals{s: s} }

// Usage returns the quota usage view of the store.
func (s *Store) Usage() *Usage { return &Usage{s: s} }

// Stats returns the identity statistics view of the store.
func (s *Store) Stats() *Stats { return &Stats{s: s} }

// Transitions returns the case history view of the store.
func (s *Store) Transitions() *Transitions { return &Transitions{s: s} }
