package domain

import (
	"time"

	"github.com/google/uuid"
)

// PartySubmission is one side's statement of the dispute.
type PartySubmission struct {
	Name           string
	Argument       string
	Evidence       []string
	EvidenceImages []string
	Identity       Identity
}

// Case is a dispute between party A (who opened it) and party B.
// PartyB is nil until a response has been committed.
type Case struct {
	ID          uuid.UUID
	Code        string
	Category    Category
	Tone        Tone
	PartyA      PartySubmission
	PartyB      *PartySubmission
	Status      CaseStatus
	AppealedByA bool
	AppealedByB bool
	AppealCount int
	ExpiresAt   time.Time
	RespondedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Verdict is loaded alongside the case when one exists.
	Verdict *Verdict
}

// HasResponse reports whether party B's response has been committed.
func (c *Case) HasResponse() bool { return c.PartyB != nil }

// IsOverdue reports whether the response window elapsed without a response.
// Only such cases may move to expired.
func (c *Case) IsOverdue(now time.Time) bool {
	return c.Status == CaseStatusPendingResponse && !c.HasResponse() && !now.Before(c.ExpiresAt)
}

// Submission returns the given party's submission, or nil if absent.
func (c *Case) Submission(p Party) *PartySubmission {
	switch p {
	case PartyA:
		return &c.PartyA
	case PartyB:
		return c.PartyB
	}
	return nil
}

// HasAppealed reports whether the given party already used its appeal.
func (c *Case) HasAppealed(p Party) bool {
	if p == PartyA {
		return c.AppealedByA
	}
	return c.AppealedByB
}

// PartyOf returns which party the identity acts as on this case.
func (c *Case) PartyOf(id Identity) (Party, bool) {
	if c.PartyA.Identity.Same(id) {
		return PartyA, true
	}
	if c.PartyB != nil && c.PartyB.Identity.Same(id) {
		return PartyB, true
	}
	return "", false
}
