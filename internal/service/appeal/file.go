package appeal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// FileInput is one party's request to reconsider a verdict.
type FileInput struct {
	Party             domain.Party
	Reason            string
	NewEvidence       []string
	NewEvidenceImages []string
}

func (i *FileInput) normalize() {
	i.Reason = domain.CollapseSpaces(i.Reason)
	i.NewEvidence = domain.CleanList(i.NewEvidence)
	i.NewEvidenceImages = domain.CleanList(i.NewEvidenceImages)
}

// Validate checks all fields against the configured limits and collects all errors.
func (i FileInput) Validate(cfg config.CaseConfig) error {
	var errs []domain.FieldError

	if !i.Party.IsValid() {
		errs = append(errs, domain.FieldError{Field: "party", Message: "must be partyA or partyB"})
	}
	switch n := domain.RuneLen(i.Reason); {
	case n < cfg.AppealReasonMin:
		errs = append(errs, domain.FieldError{Field: "reason", Message: fmt.Sprintf("min %d characters", cfg.AppealReasonMin)})
	case n > cfg.AppealReasonMax:
		errs = append(errs, domain.FieldError{Field: "reason", Message: fmt.Sprintf("max %d characters", cfg.AppealReasonMax)})
	}
	if len(i.NewEvidence) > cfg.MaxEvidenceItems {
		errs = append(errs, domain.FieldError{Field: "new_evidence", Message: fmt.Sprintf("max %d items", cfg.MaxEvidenceItems)})
	}
	if len(i.NewEvidenceImages) > cfg.MaxEvidenceImages {
		errs = append(errs, domain.FieldError{Field: "new_evidence_images", Message: fmt.Sprintf("max %d images", cfg.MaxEvidenceImages)})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// File records an appeal on a complete case and queues it for processing.
// The party flag on the case and the appeal row are written in one
// transaction, so two concurrent filings by the same party cannot both land.
func (s *Service) File(ctx context.Context, rawCode string, in FileInput) (*domain.Appeal, error) {
	in.normalize()
	if err := in.Validate(s.cfg); err != nil {
		return nil, err
	}

	code, err := domain.ParseCaseCode(rawCode)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("appeal.File: %w", err)
	}
	if c.Status != domain.CaseStatusComplete {
		return nil, &domain.ConflictError{CaseCode: c.Code, Status: c.Status, Reason: "only a decided case can be appealed"}
	}

	id := callerIdentity(ctx)
	sub := c.Submission(in.Party)
	if sub == nil || !sub.Identity.Same(id) {
		return nil, fmt.Errorf("appeal.File: caller is not %s of %s: %w", in.Party, c.Code, domain.ErrForbidden)
	}
	if c.HasAppealed(in.Party) {
		return nil, alreadyAppealed(c, in.Party)
	}

	v, err := s.verdicts.GetByCaseID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("appeal.File: verdict of %s: %w", c.Code, err)
	}

	now := s.now()
	var filed *domain.Appeal
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.cases.MarkAppealed(ctx, c.ID, in.Party, now); err != nil {
			return err
		}
		var err error
		filed, err = s.appeals.Create(ctx, &domain.Appeal{
			ID:                uuid.New(),
			CaseID:            c.ID,
			CaseCode:          c.Code,
			Party:             in.Party,
			Reason:            in.Reason,
			NewEvidence:       in.NewEvidence,
			NewEvidenceImages: in.NewEvidenceImages,
			FiledBy:           id,
			Status:            domain.AppealStatusPending,
			Original:          v.Snapshot(),
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		return err
	})
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrAlreadyExists) {
		return nil, alreadyAppealed(c, in.Party)
	}
	if err != nil {
		return nil, fmt.Errorf("appeal.File: %w", err)
	}

	s.metrics.Appeal(string(domain.AppealStatusPending))
	s.log.InfoContext(ctx, "appeal filed",
		slog.String("case_code", c.Code),
		slog.String("appeal_id", filed.ID.String()),
		slog.String("party", string(in.Party)),
	)

	// A pending appeal that could not be queued is picked up by the sweeper.
	if err := s.Enqueue(ctx, filed.ID); err != nil {
		s.log.ErrorContext(ctx, "appeal not queued",
			slog.String("appeal_id", filed.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return filed, nil
}

func alreadyAppealed(c *domain.Case, p domain.Party) error {
	return &domain.ConflictError{CaseCode: c.Code, Status: c.Status, Reason: string(p) + " already appealed"}
}
