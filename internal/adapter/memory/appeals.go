package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Appeals stores appeals, at most one per (case, party).
type Appeals struct{ s *Store }

// Create stores a new appeal.
func (r *Appeals) Create(ctx context.Context, a *domain.Appeal) (*domain.Appeal, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.t.cases[a.CaseID]
	if !ok {
		return nil, fmt.Errorf("appeal %s: case %s: %w", a.ID, a.CaseID, domain.ErrNotFound)
	}
	for _, existing := range r.s.t.appeals {
		if existing.CaseID == a.CaseID && existing.Party == a.Party {
			return nil, fmt.Errorf("appeal %s: %w", a.ID, domain.ErrAlreadyExists)
		}
	}

	stored := cloneAppeal(a)
	stored.CaseCode = c.Code
	r.s.t.appeals[a.ID] = stored
	return cloneAppeal(stored), nil
}

// GetByID returns an appeal by id.
func (r *Appeals) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appeal, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.t.appeals[id]
	if !ok {
		return nil, fmt.Errorf("appeal %s: %w", id, domain.ErrNotFound)
	}
	return cloneAppeal(a), nil
}

// ListByCase returns the appeals filed on a case, oldest first.
func (r *Appeals) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*domain.Appeal, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(a *domain.Appeal) bool { return a.CaseID == caseID },
		func(a, b *domain.Appeal) int { return a.CreatedAt.Compare(b.CreatedAt) }, 0), nil
}

// ListByStatus returns appeals in status last touched before updatedBefore.
func (r *Appeals) ListByStatus(ctx context.Context, status domain.AppealStatus, updatedBefore time.Time, limit int) ([]*domain.Appeal, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(a *domain.Appeal) bool {
		return a.Status == status && a.UpdatedAt.Before(updatedBefore)
	}, func(a, b *domain.Appeal) int { return a.UpdatedAt.Compare(b.UpdatedAt) }, limit), nil
}

func (r *Appeals) collect(keep func(*domain.Appeal) bool, order func(a, b *domain.Appeal) int, limit int) []*domain.Appeal {
	var out []*domain.Appeal
	for _, a := range r.s.t.appeals {
		if keep(a) {
			out = append(out, cloneAppeal(a))
		}
	}
	slices.SortFunc(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Transition moves an appeal between statuses.
func (r *Appeals) Transition(ctx context.Context, id uuid.UUID, from, to domain.AppealStatus, now time.Time) (*domain.Appeal, error) {
	return r.update(ctx, id, func(a *domain.Appeal) bool {
		if a.Status != from {
			return false
		}
		a.Status = to
		a.UpdatedAt = now
		return true
	})
}

// Finish records the final status and outcome of an appeal in processing.
func (r *Appeals) Finish(ctx context.Context, id uuid.UUID, status domain.AppealStatus, outcome *domain.AppealOutcome, now time.Time) (*domain.Appeal, error) {
	return r.update(ctx, id, func(a *domain.Appeal) bool {
		if a.Status != domain.AppealStatusProcessing {
			return false
		}
		a.Status = status
		if outcome != nil {
			o := *outcome
			a.Outcome = &o
		}
		a.ProcessedAt = &now
		a.UpdatedAt = now
		return true
	})
}

func (r *Appeals) update(ctx context.Context, id uuid.UUID, mutate func(a *domain.Appeal) bool) (*domain.Appeal, error) {
	defer r.s.lock(ctx)()

	cur, ok := r.s.t.appeals[id]
	if !ok {
		return nil, fmt.Errorf("appeal %s: %w", id, domain.ErrNotFound)
	}
	next := cloneAppeal(cur)
	if !mutate(next) {
		return nil, fmt.Errorf("appeal %s: %w", id, domain.ErrConflict)
	}
	r.s.t.appeals[id] = next
	return cloneAppeal(next), nil
}
