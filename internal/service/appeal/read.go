package appeal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Get returns an appeal by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Appeal, error) {
	a, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appeal.Get: %w", err)
	}
	return a, nil
}

// List returns the appeals filed on a case, oldest first.
func (s *Service) List(ctx context.Context, rawCode string) ([]*domain.Appeal, error) {
	code, err := domain.ParseCaseCode(rawCode)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("appeal.List: %w", err)
	}
	out, err := s.appeals.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("appeal.List: %w", err)
	}
	return out, nil
}
