package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// GetCase returns a case with its verdict. An unanswered case whose window
// elapsed is expired on read.
func (s *Service) GetCase(ctx context.Context, rawCode string) (*domain.Case, error) {
	code, err := domain.ParseCaseCode(rawCode)
	if err != nil {
		return nil, err
	}

	c, err := s.cases.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("dispute.GetCase: %w", err)
	}

	if c.IsOverdue(s.now()) {
		c, err = s.expire(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("dispute.GetCase: %w", err)
		}
	}

	if c.Status == domain.CaseStatusComplete {
		v, err := s.verdicts.GetByCaseID(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("dispute.GetCase: verdict of %s: %w", c.Code, err)
		}
		c.Verdict = v
	}
	return c, nil
}

// expire moves an overdue case to expired. Losing the race to a response or
// to another reader returns the case as it is now.
func (s *Service) expire(ctx context.Context, c *domain.Case) (*domain.Case, error) {
	expired, err := s.cases.Expire(ctx, c.ID, s.now())
	if isConflict(err) {
		return s.cases.GetByCode(ctx, c.Code)
	}
	if err != nil {
		return nil, err
	}
	s.appendHistory(ctx, expired, domain.CaseStatusPendingResponse, domain.CaseStatusExpired, domain.ReasonExpired)
	s.log.InfoContext(ctx, "case expired", slog.String("case_code", c.Code))
	return expired, nil
}

// History returns the status transitions of a case in order.
func (s *Service) History(ctx context.Context, rawCode string) ([]domain.CaseTransition, error) {
	c, err := s.GetCase(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	out, err := s.history.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("dispute.History: %w", err)
	}
	return out, nil
}

// QuotaStatus reports the caller's verdict allotment for today.
func (s *Service) QuotaStatus(ctx context.Context) (domain.QuotaStatus, error) {
	st, err := s.quota.Check(ctx, callerIdentity(ctx))
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("dispute.QuotaStatus: %w", err)
	}
	return st, nil
}

// Stats returns the caller's results across completed cases.
func (s *Service) Stats(ctx context.Context) (*domain.IdentityStats, error) {
	key := callerIdentity(ctx).Key()
	st, err := s.stats.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.IdentityStats{IdentityKey: key, Badges: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dispute.Stats: %w", err)
	}
	return st, nil
}
