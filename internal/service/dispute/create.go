package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// CreateCase opens a dispute on behalf of the caller. The caller's quota is
// checked but not spent; spend happens only when a verdict is issued.
func (s *Service) CreateCase(ctx context.Context, in CreateCaseInput) (*domain.Case, error) {
	in.normalize()
	if err := in.Validate(s.cfg); err != nil {
		return nil, err
	}

	id := callerIdentity(ctx)
	if id.IsZero() {
		return nil, domain.NewValidationError("identity", "caller could not be identified")
	}

	st, err := s.quota.Check(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dispute.CreateCase: %w", err)
	}
	if !st.CanUse {
		s.metrics.QuotaDenial("create")
		return nil, fmt.Errorf("dispute.CreateCase: %d of %d used: %w", st.Used, st.Limit, domain.ErrQuotaExceeded)
	}

	now := s.now()
	attempts := max(s.cfg.CodeAttempts, 1)
	for range attempts {
		c := &domain.Case{
			ID:       uuid.New(),
			Code:     domain.RandomCaseCode(now),
			Category: in.Category,
			Tone:     in.Tone,
			Status:   domain.CaseStatusPendingResponse,
			PartyA: domain.PartySubmission{
				Name:           in.Name,
				Argument:       in.Argument,
				Evidence:       in.Evidence,
				EvidenceImages: in.EvidenceImages,
				Identity:       id,
			},
			ExpiresAt: now.Add(s.cfg.ResponseWindow),
			CreatedAt: now,
			UpdatedAt: now,
		}

		created, err := s.cases.Create(ctx, c)
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dispute.CreateCase: %w", err)
		}

		s.appendHistory(ctx, created, "", domain.CaseStatusPendingResponse, domain.ReasonCreated)
		s.log.InfoContext(ctx, "case created",
			slog.String("case_code", created.Code),
			slog.String("category", string(created.Category)),
			slog.Bool("authenticated", id.Authenticated()),
		)
		return created, nil
	}

	return nil, fmt.Errorf("dispute.CreateCase: no free case code after %d attempts: %w", attempts, domain.ErrConflict)
}
