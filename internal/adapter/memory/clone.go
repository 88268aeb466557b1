package memory

import (
	"slices"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

func cloneSubmission(p domain.PartySubmission) domain.PartySubmission {
	p.Evidence = slices.Clone(p.Evidence)
	p.EvidenceImages = slices.Clone(p.EvidenceImages)
	return p
}

func cloneCase(c *domain.Case) *domain.Case {
	out := *c
	out.PartyA = cloneSubmission(c.PartyA)
	if c.PartyB != nil {
		b := cloneSubmission(*c.PartyB)
		out.PartyB = &b
	}
	if c.RespondedAt != nil {
		t := *c.RespondedAt
		out.RespondedAt = &t
	}
	out.Verdict = nil
	return &out
}

func cloneAnalysis(a domain.PartyAnalysis) domain.PartyAnalysis {
	a.Strengths = slices.Clone(a.Strengths)
	a.Weaknesses = slices.Clone(a.Weaknesses)
	a.Fallacies = slices.Clone(a.Fallacies)
	a.KeyEvidence = slices.Clone(a.KeyEvidence)
	a.Gaslighting.Examples = slices.Clone(a.Gaslighting.Examples)
	return a
}

func cloneVerdict(v *domain.Verdict) *domain.Verdict {
	out := *v
	out.PartyA = cloneAnalysis(v.PartyA)
	out.PartyB = cloneAnalysis(v.PartyB)
	return &out
}

func cloneAppeal(a *domain.Appeal) *domain.Appeal {
	out := *a
	out.NewEvidence = slices.Clone(a.NewEvidence)
	out.NewEvidenceImages = slices.Clone(a.NewEvidenceImages)
	if a.Outcome != nil {
		o := *a.Outcome
		out.Outcome = &o
	}
	if a.ProcessedAt != nil {
		t := *a.ProcessedAt
		out.ProcessedAt = &t
	}
	return &out
}

func cloneStats(s *domain.IdentityStats) *domain.IdentityStats {
	out := *s
	out.Badges = slices.Clone(s.Badges)
	return &out
}
