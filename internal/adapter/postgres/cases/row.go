package cases

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

type caseRow struct {
	ID       uuid.UUID `db:"id"`
	Code     string    `db:"code"`
	Category string    `db:"category"`
	Tone     string    `db:"tone"`
	Status   string    `db:"status"`

	PartyAName           string     `db:"party_a_name"`
	PartyAArgument       string     `db:"party_a_argument"`
	PartyAEvidence       []string   `db:"party_a_evidence"`
	PartyAEvidenceImages []string   `db:"party_a_evidence_images"`
	PartyAUserID         *uuid.UUID `db:"party_a_user_id"`
	PartyAIPHash         string     `db:"party_a_ip_hash"`

	PartyBName           *string    `db:"party_b_name"`
	PartyBArgument       *string    `db:"party_b_argument"`
	PartyBEvidence       []string   `db:"party_b_evidence"`
	PartyBEvidenceImages []string   `db:"party_b_evidence_images"`
	PartyBUserID         *uuid.UUID `db:"party_b_user_id"`
	PartyBIPHash         *string    `db:"party_b_ip_hash"`

	AppealedByA bool `db:"appealed_by_a"`
	AppealedByB bool `db:"appealed_by_b"`
	AppealCount int  `db:"appeal_count"`

	ExpiresAt   time.Time  `db:"expires_at"`
	RespondedAt *time.Time `db:"responded_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r *caseRow) toDomain() *domain.Case {
	c := &domain.Case{
		ID:       r.ID,
		Code:     r.Code,
		Category: domain.Category(r.Category),
		Tone:     domain.Tone(r.Tone),
		Status:   domain.CaseStatus(r.Status),
		PartyA: domain.PartySubmission{
			Name:           r.PartyAName,
			Argument:       r.PartyAArgument,
			Evidence:       r.PartyAEvidence,
			EvidenceImages: r.PartyAEvidenceImages,
			Identity:       identity(r.PartyAUserID, r.PartyAIPHash),
		},
		AppealedByA: r.AppealedByA,
		AppealedByB: r.AppealedByB,
		AppealCount: r.AppealCount,
		ExpiresAt:   r.ExpiresAt,
		RespondedAt: r.RespondedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.PartyBArgument != nil {
		b := &domain.PartySubmission{
			Argument:       *r.PartyBArgument,
			Evidence:       r.PartyBEvidence,
			EvidenceImages: r.PartyBEvidenceImages,
		}
		if r.PartyBName != nil {
			b.Name = *r.PartyBName
		}
		var hash string
		if r.PartyBIPHash != nil {
			hash = *r.PartyBIPHash
		}
		b.Identity = identity(r.PartyBUserID, hash)
		c.PartyB = b
	}

	return c
}

func identity(userID *uuid.UUID, ipHash string) domain.Identity {
	id := domain.Identity{IPHash: ipHash}
	if userID != nil {
		id.UserID = *userID
	}
	return id
}

func userID(id domain.Identity) *uuid.UUID {
	if !id.Authenticated() {
		return nil
	}
	u := id.UserID
	return &u
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
