package rest

import (
	"context"
	"time"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/pkg/ctxutil"
)

// Identities never leave the server; viewerParty tells the caller which
// side, if any, they act as.

type partyResponse struct {
	Name           string   `json:"name"`
	Argument       string   `json:"argument"`
	Evidence       []string `json:"evidence"`
	EvidenceImages []string `json:"evidenceImages"`
}

type analysisResponse struct {
	Score           int              `json:"score"`
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	Fallacies       []domain.Fallacy `json:"fallacies"`
	KeyEvidence     []string         `json:"keyEvidence"`
	EvidenceQuality string           `json:"evidenceQuality"`
	Gaslighting     gaslighting      `json:"gaslighting"`
}

type gaslighting struct {
	Detected bool     `json:"detected"`
	Severity string   `json:"severity"`
	Examples []string `json:"examples"`
}

type verdictResponse struct {
	ID         string           `json:"id"`
	Winner     string           `json:"winner"`
	Confidence int              `json:"confidence"`
	Summary    string           `json:"summary"`
	Reasoning  string           `json:"reasoning"`
	Advice     string           `json:"advice"`
	PartyA     analysisResponse `json:"partyA"`
	PartyB     analysisResponse `json:"partyB"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type caseResponse struct {
	Code        string           `json:"code"`
	Category    string           `json:"category"`
	Tone        string           `json:"tone"`
	Status      string           `json:"status"`
	PartyA      partyResponse    `json:"partyA"`
	PartyB      *partyResponse   `json:"partyB"`
	AppealedByA bool             `json:"appealedByA"`
	AppealedByB bool             `json:"appealedByB"`
	AppealCount int              `json:"appealCount"`
	ViewerParty string           `json:"viewerParty,omitempty"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	RespondedAt *time.Time       `json:"respondedAt"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Verdict     *verdictResponse `json:"verdict"`
}

type transitionResponse struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type snapshotResponse struct {
	Winner      string `json:"winner"`
	PartyAScore int    `json:"partyAScore"`
	PartyBScore int    `json:"partyBScore"`
	Confidence  int    `json:"confidence"`
	Summary     string `json:"summary"`
	Reasoning   string `json:"reasoning"`
}

type appealOutcomeResponse struct {
	NewVerdict        snapshotResponse `json:"newVerdict"`
	VerdictChanged    bool             `json:"verdictChanged"`
	ChangeSummary     string           `json:"changeSummary"`
	Meritorious       bool             `json:"meritorious"`
	NewEvidenceImpact string           `json:"newEvidenceImpact"`
}

type appealResponse struct {
	ID                string                 `json:"id"`
	CaseCode          string                 `json:"caseCode"`
	Party             string                 `json:"party"`
	Reason            string                 `json:"reason"`
	NewEvidence       []string               `json:"newEvidence"`
	NewEvidenceImages []string               `json:"newEvidenceImages"`
	Status            string                 `json:"status"`
	Original          snapshotResponse       `json:"original"`
	Outcome           *appealOutcomeResponse `json:"outcome"`
	CreatedAt         time.Time              `json:"createdAt"`
	ProcessedAt       *time.Time             `json:"processedAt"`
}

type quotaResponse struct {
	CanUse        bool `json:"canUse"`
	Remaining     int  `json:"remaining"`
	Used          int  `json:"used"`
	Limit         int  `json:"limit"`
	Authenticated bool `json:"authenticated"`
}

type statsResponse struct {
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	Draws         int      `json:"draws"`
	Total         int      `json:"total"`
	CurrentStreak int      `json:"currentStreak"`
	BestStreak    int      `json:"bestStreak"`
	Badges        []string `json:"badges"`
}

func callerIdentity(ctx context.Context) domain.Identity {
	return domain.NewIdentity(ctxutil.CallerFromCtx(ctx))
}

func toPartyResponse(p domain.PartySubmission) partyResponse {
	return partyResponse{
		Name:           p.Name,
		Argument:       p.Argument,
		Evidence:       nonNil(p.Evidence),
		EvidenceImages: nonNil(p.EvidenceImages),
	}
}

func toAnalysisResponse(a domain.PartyAnalysis) analysisResponse {
	fallacies := a.Fallacies
	if fallacies == nil {
		fallacies = []domain.Fallacy{}
	}
	return analysisResponse{
		Score:           a.Score,
		Strengths:       nonNil(a.Strengths),
		Weaknesses:      nonNil(a.Weaknesses),
		Fallacies:       fallacies,
		KeyEvidence:     nonNil(a.KeyEvidence),
		EvidenceQuality: string(a.EvidenceQuality),
		Gaslighting: gaslighting{
			Detected: a.Gaslighting.Detected,
			Severity: string(a.Gaslighting.Severity),
			Examples: nonNil(a.Gaslighting.Examples),
		},
	}
}

func toCaseResponse(ctx context.Context, c *domain.Case) caseResponse {
	resp := caseResponse{
		Code:        c.Code,
		Category:    string(c.Category),
		Tone:        string(c.Tone),
		Status:      string(c.Status),
		PartyA:      toPartyResponse(c.PartyA),
		AppealedByA: c.AppealedByA,
		AppealedByB: c.AppealedByB,
		AppealCount: c.AppealCount,
		ExpiresAt:   c.ExpiresAt,
		RespondedAt: c.RespondedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.PartyB != nil {
		b := toPartyResponse(*c.PartyB)
		resp.PartyB = &b
	}
	if p, ok := c.PartyOf(callerIdentity(ctx)); ok {
		resp.ViewerParty = string(p)
	}
	if v := c.Verdict; v != nil {
		resp.Verdict = &verdictResponse{
			ID:         v.ID.String(),
			Winner:     string(v.Winner),
			Confidence: v.Confidence,
			Summary:    v.Summary,
			Reasoning:  v.Reasoning,
			Advice:     v.Advice,
			PartyA:     toAnalysisResponse(v.PartyA),
			PartyB:     toAnalysisResponse(v.PartyB),
			CreatedAt:  v.CreatedAt,
		}
	}
	return resp
}

func toSnapshotResponse(s domain.VerdictSnapshot) snapshotResponse {
	return snapshotResponse{
		Winner:      string(s.Winner),
		PartyAScore: s.PartyAScore,
		PartyBScore: s.PartyBScore,
		Confidence:  s.Confidence,
		Summary:     s.Summary,
		Reasoning:   s.Reasoning,
	}
}

func toAppealResponse(a *domain.Appeal) appealResponse {
	resp := appealResponse{
		ID:                a.ID.String(),
		CaseCode:          a.CaseCode,
		Party:             string(a.Party),
		Reason:            a.Reason,
		NewEvidence:       nonNil(a.NewEvidence),
		NewEvidenceImages: nonNil(a.NewEvidenceImages),
		Status:            string(a.Status),
		Original:          toSnapshotResponse(a.Original),
		CreatedAt:         a.CreatedAt,
		ProcessedAt:       a.ProcessedAt,
	}
	if o := a.Outcome; o != nil {
		resp.Outcome = &appealOutcomeResponse{
			NewVerdict:        toSnapshotResponse(o.NewVerdict),
			VerdictChanged:    o.VerdictChanged,
			ChangeSummary:     o.ChangeSummary,
			Meritorious:       o.Meritorious,
			NewEvidenceImpact: o.NewEvidenceImpact,
		}
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
