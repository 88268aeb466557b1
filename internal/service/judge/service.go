package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/provider"
)

type invoker interface {
	Invoke(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error)
}

// Service turns judging requests into validated verdicts.
type Service struct {
	pool        invoker
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// NewService creates a new judge service.
func NewService(log *slog.Logger, pool invoker, maxTokens int, temperature float64) *Service {
	return &Service{
		pool:        pool,
		maxTokens:   maxTokens,
		temperature: temperature,
		log:         log.With("service", "judge"),
	}
}

// VerdictRequest is everything the engine sees about a case.
type VerdictRequest struct {
	CaseCode string
	Category domain.Category
	Tone     domain.Tone
	PartyA   domain.PartySubmission
	PartyB   domain.PartySubmission
}

// Validate checks that both sides are present.
func (r VerdictRequest) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(r.PartyA.Argument) == "" {
		errs = append(errs, domain.FieldError{Field: "partyA.argument", Message: "required"})
	}
	if strings.TrimSpace(r.PartyB.Argument) == "" {
		errs = append(errs, domain.FieldError{Field: "partyB.argument", Message: "required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// AppealRequest asks the engine to reconsider a ruling.
type AppealRequest struct {
	VerdictRequest
	Appellant         domain.Party
	Reason            string
	NewEvidence       []string
	NewEvidenceImages []string
	Original          domain.VerdictSnapshot
}

// Validate checks the case sides and the appeal reason.
func (r AppealRequest) Validate() error {
	if err := r.VerdictRequest.Validate(); err != nil {
		return err
	}
	if !r.Appellant.IsValid() {
		return domain.NewValidationError("appellant", "must be partyA or partyB")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return domain.NewValidationError("reason", "required")
	}
	return nil
}

// Judge requests and validates a verdict. Engine failures are returned as
// *domain.ProvidersExhaustedError or *domain.MalformedOutputError.
func (s *Service) Judge(ctx context.Context, req VerdictRequest) (*domain.Verdict, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out, err := s.pool.Invoke(ctx, s.completion(req.Tone, buildVerdictPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("judge case %s: %w", req.CaseCode, err)
	}

	v, err := ParseVerdict(out.Text)
	if err != nil {
		s.log.WarnContext(ctx, "engine output rejected",
			slog.String("case_code", req.CaseCode),
			slog.String("provider", out.Provider),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("judge case %s: %w", req.CaseCode, err)
	}
	v.Provider = out.Provider
	v.Model = out.Model

	s.log.InfoContext(ctx, "verdict computed",
		slog.String("case_code", req.CaseCode),
		slog.String("provider", out.Provider),
		slog.String("winner", string(v.Winner)),
		slog.Int("party_a_score", v.PartyA.Score),
		slog.Int("party_b_score", v.PartyB.Score),
	)

	return v, nil
}

// Reconsider requests and validates an appeal decision.
func (s *Service) Reconsider(ctx context.Context, req AppealRequest) (*domain.AppealDecision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out, err := s.pool.Invoke(ctx, s.completion(req.Tone, buildAppealPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("reconsider case %s: %w", req.CaseCode, err)
	}

	d, err := ParseAppeal(out.Text)
	if err != nil {
		s.log.WarnContext(ctx, "engine appeal output rejected",
			slog.String("case_code", req.CaseCode),
			slog.String("provider", out.Provider),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("reconsider case %s: %w", req.CaseCode, err)
	}

	return d, nil
}

func (s *Service) completion(tone domain.Tone, prompt string) provider.CompletionRequest {
	return provider.CompletionRequest{
		System:      buildSystemPrompt(tone),
		Prompt:      prompt,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}
}
