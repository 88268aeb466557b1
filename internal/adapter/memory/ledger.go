package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Usage counts verdicts per identity and day.
type Usage struct{ s *Store }

// Used returns the count for key on day.
func (r *Usage) Used(ctx context.Context, key string, day time.Time) (int, error) {
	defer r.s.lock(ctx)()
	return r.s.t.usage[usageKey{key: key, day: day.UTC()}], nil
}

// Increment adds one to the count for key on day and returns the new total.
func (r *Usage) Increment(ctx context.Context, key string, day time.Time) (int, error) {
	defer r.s.lock(ctx)()

	k := usageKey{key: key, day: day.UTC()}
	r.s.t.usage[k]++
	return r.s.t.usage[k], nil
}

// Stats stores per-identity results.
type Stats struct{ s *Store }

// Get returns the statistics for key or domain.ErrNotFound.
func (r *Stats) Get(ctx context.Context, key string) (*domain.IdentityStats, error) {
	defer r.s.lock(ctx)()

	st, ok := r.s.t.stats[key]
	if !ok {
		return nil, fmt.Errorf("stats %s: %w", key, domain.ErrNotFound)
	}
	return cloneStats(st), nil
}

// GetForUpdate returns the statistics for key, or empty statistics when the
// identity has no history yet. Run it inside RunInTx to hold the store.
func (r *Stats) GetForUpdate(ctx context.Context, key string) (*domain.IdentityStats, error) {
	defer r.s.lock(ctx)()

	if st, ok := r.s.t.stats[key]; ok {
		return cloneStats(st), nil
	}
	return &domain.IdentityStats{IdentityKey: key}, nil
}

// Upsert replaces the statistics for st.IdentityKey.
func (r *Stats) Upsert(ctx context.Context, st *domain.IdentityStats) error {
	defer r.s.lock(ctx)()

	r.s.t.stats[st.IdentityKey] = cloneStats(st)
	return nil
}

// Transitions is the append-only case history.
type Transitions struct{ s *Store }

// Append records one transition.
func (r *Transitions) Append(ctx context.Context, tr domain.CaseTransition) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.cases[tr.CaseID]; !ok {
		return fmt.Errorf("transition for case %s: %w", tr.CaseID, domain.ErrNotFound)
	}
	r.s.t.transitions = append(r.s.t.transitions, tr)
	return nil
}

// ListByCase returns the history of a case in order.
func (r *Transitions) ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.CaseTransition, error) {
	defer r.s.lock(ctx)()

	var out []domain.CaseTransition
	for _, tr := range r.s.t.transitions {
		if tr.CaseID == caseID {
			out = append(out, tr)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.CaseTransition) int {
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	return out, nil
}
