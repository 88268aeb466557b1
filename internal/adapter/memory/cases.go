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

// Cases stores disputes.
type Cases struct{ s *Store }

// Create inserts a case. A code collision returns domain.ErrAlreadyExists.
func (r *Cases) Create(ctx context.Context, c *domain.Case) (*domain.Case, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.codes[c.Code]; ok {
		return nil, fmt.Errorf("case %s: %w", c.Code, domain.ErrAlreadyExists)
	}
	if _, ok := r.s.t.cases[c.ID]; ok {
		return nil, fmt.Errorf("case %s: %w", c.ID, domain.ErrAlreadyExists)
	}

	stored := cloneCase(c)
	r.s.t.cases[c.ID] = stored
	r.s.t.codes[c.Code] = c.ID
	return cloneCase(stored), nil
}

// GetByID returns a case by id.
func (r *Cases) GetByID(ctx context.Context, id uuid.UUID) (*domain.Case, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.t.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, domain.ErrNotFound)
	}
	return cloneCase(c), nil
}

// GetByCode returns a case by its code.
func (r *Cases) GetByCode(ctx context.Context, code string) (*domain.Case, error) {
	defer r.s.lock(ctx)()

	id, ok := r.s.t.codes[code]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", code, domain.ErrNotFound)
	}
	return cloneCase(r.s.t.cases[id]), nil
}

// List returns cases matching f, oldest update first.
func (r *Cases) List(ctx context.Context, f domain.CaseFilter) ([]*domain.Case, error) {
	defer r.s.lock(ctx)()

	var out []*domain.Case
	for _, c := range r.s.t.cases {
		if f.Matches(c) {
			out = append(out, cloneCase(c))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Case) int {
		return cmp.Or(a.UpdatedAt.Compare(b.UpdatedAt), cmp.Compare(a.Code, b.Code))
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// CommitResponse stores party B's submission iff the case is pending, has no
// response and has not expired.
func (r *Cases) CommitResponse(ctx context.Context, id uuid.UUID, sub domain.PartySubmission, now time.Time) (*domain.Case, error) {
	return r.update(ctx, id, func(c *domain.Case) bool {
		if c.Status != domain.CaseStatusPendingResponse || c.HasResponse() || !now.Before(c.ExpiresAt) {
			return false
		}
		b := cloneSubmission(sub)
		c.PartyB = &b
		c.RespondedAt = &now
		c.UpdatedAt = now
		return true
	})
}

// Transition moves a case from one status to another.
func (r *Cases) Transition(ctx context.Context, id uuid.UUID, from, to domain.CaseStatus, now time.Time) (*domain.Case, error) {
	return r.update(ctx, id, func(c *domain.Case) bool {
		if c.Status != from {
			return false
		}
		c.Status = to
		c.UpdatedAt = now
		return true
	})
}

// Expire marks an unanswered, overdue case as expired.
func (r *Cases) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Case, error) {
	return r.update(ctx, id, func(c *domain.Case) bool {
		if !c.IsOverdue(now) {
			return false
		}
		c.Status = domain.CaseStatusExpired
		c.UpdatedAt = now
		return true
	})
}

// MarkAppealed flags the party's single appeal on a complete case.
func (r *Cases) MarkAppealed(ctx context.Context, id uuid.UUID, party domain.Party, now time.Time) (*domain.Case, error) {
	return r.update(ctx, id, func(c *domain.Case) bool {
		if c.Status != domain.CaseStatusComplete || c.HasAppealed(party) {
			return false
		}
		if party == domain.PartyA {
			c.AppealedByA = true
		} else {
			c.AppealedByB = true
		}
		c.AppealCount++
		c.UpdatedAt = now
		return true
	})
}

// update applies mutate to a copy of the case and stores it when mutate
// reports that the guard held.
func (r *Cases) update(ctx context.Context, id uuid.UUID, mutate func(c *domain.Case) bool) (*domain.Case, error) {
	defer r.s.lock(ctx)()

	cur, ok := r.s.t.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, domain.ErrNotFound)
	}

	next := cloneCase(cur)
	if !mutate(next) {
		return nil, fmt.Errorf("case %s: %w", id, domain.ErrConflict)
	}
	r.s.t.cases[id] = next
	return cloneCase(next), nil
}
