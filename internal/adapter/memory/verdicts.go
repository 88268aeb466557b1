package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Verdicts stores one verdict per case.
type Verdicts struct{ s *Store }

// Create stores v. A second verdict for the same case returns domain.ErrAlreadyExists.
func (r *Verdicts) Create(ctx context.Context, v *domain.Verdict) (*domain.Verdict, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.t.cases[v.CaseID]; !ok {
		return nil, fmt.Errorf("verdict for case %s: %w", v.CaseID, domain.ErrNotFound)
	}
	if _, ok := r.s.t.verdicts[v.CaseID]; ok {
		return nil, fmt.Errorf("verdict for case %s: %w", v.CaseID, domain.ErrAlreadyExists)
	}
	if v.PartyA.Score+v.PartyB.Score != 100 {
		return nil, fmt.Errorf("verdict for case %s: scores sum to %d: %w",
			v.CaseID, v.PartyA.Score+v.PartyB.Score, domain.ErrValidation)
	}

	r.s.t.verdicts[v.CaseID] = cloneVerdict(v)
	return cloneVerdict(v), nil
}

// GetByCaseID returns the verdict for a case.
func (r *Verdicts) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*domain.Verdict, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.t.verdicts[caseID]
	if !ok {
		return nil, fmt.Errorf("verdict for case %s: %w", caseID, domain.ErrNotFound)
	}
	return cloneVerdict(v), nil
}
