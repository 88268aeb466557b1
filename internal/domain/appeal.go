package domain

import (
	"time"

	"github.com/google/uuid"
)

// Appeal asks the judge to reconsider a completed case on behalf of one party.
// Original is frozen at filing time; Outcome is set once processing ends.
type Appeal struct {
	ID                uuid.UUID
	CaseID            uuid.UUID
	CaseCode          string
	Party             Party
	Reason            string
	NewEvidence       []string
	NewEvidenceImages []string
	FiledBy           Identity
	Status            AppealStatus
	Original          VerdictSnapshot
	Outcome           *AppealOutcome
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ProcessedAt       *time.Time
}

// AppealOutcome is the result of re-evaluating a case.
type AppealOutcome struct {
	NewVerdict        VerdictSnapshot `json:"newVerdict"`
	VerdictChanged    bool            `json:"verdictChanged"`
	ChangeSummary     string          `json:"changeSummary"`
	Meritorious       bool            `json:"meritorious"`
	NewEvidenceImpact string          `json:"newEvidenceImpact"`
}

// AppealDecision is the engine's validated answer to an appeal request.
type AppealDecision struct {
	PartyA            PartyAnalysis
	PartyB            PartyAnalysis
	Winner            Winner
	Confidence        int
	Summary           string
	Reasoning         string
	Meritorious       bool
	NewEvidenceImpact string
	ChangeSummary     string
}

// Snapshot converts the decision into the form stored on the appeal.
func (d *AppealDecision) Snapshot() VerdictSnapshot {
	return VerdictSnapshot{
		Winner:      d.Winner,
		PartyAScore: d.PartyA.Score,
		PartyBScore: d.PartyB.Score,
		Confidence:  d.Confidence,
		Summary:     d.Summary,
		Reasoning:   d.Reasoning,
	}
}
