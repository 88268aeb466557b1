package dispute

import (
	"context"
	"fmt"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Retrigger re-runs the quota gate for a responded case that is waiting on
// generation: one returned to pending_response after a failure, or one parked
// in blocked_quota. Only a party of the case may retrigger it.
func (s *Service) Retrigger(ctx context.Context, rawCode string) (*domain.Case, error) {
	c, err := s.GetCase(ctx, rawCode)
	if err != nil {
		return nil, err
	}

	if _, ok := c.PartyOf(callerIdentity(ctx)); !ok {
		return nil, fmt.Errorf("dispute.Retrigger: caller is not a party of %s: %w", c.Code, domain.ErrForbidden)
	}

	switch {
	case c.Status == domain.CaseStatusExpired:
		return nil, domain.ErrExpired
	case c.Status == domain.CaseStatusBlockedQuota:
		return s.gate(ctx, c, domain.CaseStatusBlockedQuota, domain.ReasonRetriggered)
	case c.Status == domain.CaseStatusPendingResponse && c.HasResponse():
		return s.gate(ctx, c, domain.CaseStatusPendingResponse, domain.ReasonRetriggered)
	case c.Status == domain.CaseStatusPendingResponse:
		return nil, conflictFor(c, "waiting for a response")
	default:
		return nil, conflictFor(c, "nothing to retrigger")
	}
}
