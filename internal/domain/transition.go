package domain

import (
	"time"

	"github.com/google/uuid"
)

// CaseTransition is one append-only entry of a case's status history.
type CaseTransition struct {
	ID        uuid.UUID
	CaseID    uuid.UUID
	From      CaseStatus
	To        CaseStatus
	Reason    string
	CreatedAt time.Time
}

// Transition reasons recorded in the history.
const (
	ReasonCreated          = "created"
	ReasonResponded        = "response committed"
	ReasonQuotaBlocked     = "joint quota check failed"
	ReasonGenerationQueued = "generation queued"
	ReasonDispatchFailed   = "generation could not be queued"
	ReasonVerdictIssued    = "verdict issued"
	ReasonEngineFailed     = "reasoning engine failed"
	ReasonPersistFailed    = "verdict could not be stored"
	ReasonMissingResponse  = "party B response missing"
	ReasonExpired          = "response window elapsed"
	ReasonStaleRecovered   = "stale analysis recovered"
	ReasonRetriggered      = "generation retriggered"
)
