package dispute

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// CreateCaseInput is party A's side of a new dispute.
type CreateCaseInput struct {
	Name           string
	Argument       string
	Category       domain.Category
	Tone           domain.Tone
	Evidence       []string
	EvidenceImages []string
}

// ResponseInput is party B's side of an existing dispute.
type ResponseInput struct {
	Name           string
	Argument       string
	Evidence       []string
	EvidenceImages []string
}

func (i *CreateCaseInput) normalize() {
	i.Name = domain.CollapseSpaces(i.Name)
	i.Argument = domain.CollapseSpaces(i.Argument)
	i.Evidence = domain.CleanList(i.Evidence)
	i.EvidenceImages = domain.CleanList(i.EvidenceImages)
	if i.Tone == "" {
		i.Tone = domain.ToneNeutral
	}
}

// Validate checks all fields against the configured limits and collects all errors.
func (i CreateCaseInput) Validate(cfg config.CaseConfig) error {
	errs := validateSide(cfg, i.Name, i.Argument, i.Evidence, i.EvidenceImages)
	if !i.Category.IsValid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "unknown category"})
	}
	if !i.Tone.IsValid() {
		errs = append(errs, domain.FieldError{Field: "tone", Message: "unknown tone"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func (i *ResponseInput) normalize() {
	i.Name = domain.CollapseSpaces(i.Name)
	i.Argument = domain.CollapseSpaces(i.Argument)
	i.Evidence = domain.CleanList(i.Evidence)
	i.EvidenceImages = domain.CleanList(i.EvidenceImages)
}

// Validate checks all fields against the configured limits and collects all errors.
func (i ResponseInput) Validate(cfg config.CaseConfig) error {
	if errs := validateSide(cfg, i.Name, i.Argument, i.Evidence, i.EvidenceImages); len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateSide(cfg config.CaseConfig, name, argument string, evidence, images []string) []domain.FieldError {
	var errs []domain.FieldError

	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	} else if domain.RuneLen(name) > cfg.NameMaxLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: fmt.Sprintf("max %d characters", cfg.NameMaxLen)})
	}

	switch n := domain.RuneLen(argument); {
	case n < cfg.ArgumentMinLen:
		errs = append(errs, domain.FieldError{Field: "argument", Message: fmt.Sprintf("min %d characters", cfg.ArgumentMinLen)})
	case n > cfg.ArgumentMaxLen:
		errs = append(errs, domain.FieldError{Field: "argument", Message: fmt.Sprintf("max %d characters", cfg.ArgumentMaxLen)})
	}

	if len(evidence) > cfg.MaxEvidenceItems {
		errs = append(errs, domain.FieldError{Field: "evidence", Message: fmt.Sprintf("max %d items", cfg.MaxEvidenceItems)})
	}
	for _, e := range evidence {
		if domain.RuneLen(e) > cfg.EvidenceItemMax {
			errs = append(errs, domain.FieldError{Field: "evidence", Message: fmt.Sprintf("items are limited to %d characters", cfg.EvidenceItemMax)})
			break
		}
	}

	if len(images) > cfg.MaxEvidenceImages {
		errs = append(errs, domain.FieldError{Field: "evidence_images", Message: fmt.Sprintf("max %d images", cfg.MaxEvidenceImages)})
	}
	for _, u := range images {
		if !strings.HasPrefix(u, "https://") {
			errs = append(errs, domain.FieldError{Field: "evidence_images", Message: "must be https URLs"})
			break
		}
	}

	return errs
}
