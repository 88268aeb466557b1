package domain

import (
	"time"

	"github.com/google/uuid"
)

// Fallacy is a reasoning flaw the engine detected in an argument.
type Fallacy struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation,omitempty"`
}

// GaslightingAssessment flags manipulation of the other party's perception.
type GaslightingAssessment struct {
	Detected bool     `json:"detected"`
	Severity Severity `json:"severity"`
	Examples []string `json:"examples"`
}

// PartyAnalysis is the engine's assessment of one side.
type PartyAnalysis struct {
	Score           int                   `json:"score"`
	Strengths       []string              `json:"strengths"`
	Weaknesses      []string              `json:"weaknesses"`
	Fallacies       []Fallacy             `json:"fallacies"`
	KeyEvidence     []string              `json:"keyEvidence"`
	EvidenceQuality EvidenceQuality       `json:"evidenceQuality"`
	Gaslighting     GaslightingAssessment `json:"gaslighting"`
}

// Verdict is the scored ruling on a case. PartyA.Score + PartyB.Score == 100.
type Verdict struct {
	ID         uuid.UUID
	CaseID     uuid.UUID
	PartyA     PartyAnalysis
	PartyB     PartyAnalysis
	Winner     Winner
	Confidence int
	Summary    string
	Reasoning  string
	Advice     string
	Provider   string
	Model      string
	CreatedAt  time.Time
}

// Snapshot captures the parts of a verdict an appeal compares against.
func (v *Verdict) Snapshot() VerdictSnapshot {
	return VerdictSnapshot{
		Winner:      v.Winner,
		PartyAScore: v.PartyA.Score,
		PartyBScore: v.PartyB.Score,
		Confidence:  v.Confidence,
		Summary:     v.Summary,
		Reasoning:   v.Reasoning,
	}
}

// OutcomeFor returns the win/loss/draw result of the verdict for one party.
func (v *Verdict) OutcomeFor(p Party) Outcome {
	switch {
	case v.Winner == WinnerDraw:
		return OutcomeDraw
	case string(v.Winner) == string(p):
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// VerdictSnapshot is an immutable copy of a verdict's ruling.
type VerdictSnapshot struct {
	Winner      Winner `json:"winner"`
	PartyAScore int    `json:"partyAScore"`
	PartyBScore int    `json:"partyBScore"`
	Confidence  int    `json:"confidence"`
	Summary     string `json:"summary"`
	Reasoning   string `json:"reasoning"`
}
