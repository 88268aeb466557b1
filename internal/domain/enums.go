package domain

import "strings"

// CaseStatus is the lifecycle state of a dispute.
type CaseStatus string

const (
	CaseStatusPendingResponse CaseStatus = "pending_response"
	CaseStatusAnalyzing       CaseStatus = "analyzing"
	CaseStatusComplete        CaseStatus = "complete"
	CaseStatusBlockedQuota    CaseStatus = "blocked_quota"
	CaseStatusExpired         CaseStatus = "expired"
)

func (s CaseStatus) String() string { return string(s) }

func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusPendingResponse, CaseStatusAnalyzing, CaseStatusComplete,
		CaseStatusBlockedQuota, CaseStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is possible.
// Appeal bookkeeping on a complete case is not a lifecycle transition.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusComplete || s == CaseStatusExpired
}

// Party identifies one side of a dispute.
type Party string

const (
	PartyA Party = "partyA"
	PartyB Party = "partyB"
)

func (p Party) String() string { return string(p) }

func (p Party) IsValid() bool {
	return p == PartyA || p == PartyB
}

// ParseParty accepts the canonical form plus the loose spellings clients send.
func ParseParty(s string) (Party, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "partya", "party_a", "a":
		return PartyA, true
	case "partyb", "party_b", "b":
		return PartyB, true
	}
	return "", false
}

// Winner is the outcome of a verdict.
type Winner string

const (
	WinnerPartyA Winner = "partyA"
	WinnerPartyB Winner = "partyB"
	WinnerDraw   Winner = "draw"
)

func (w Winner) String() string { return string(w) }

func (w Winner) IsValid() bool {
	switch w {
	case WinnerPartyA, WinnerPartyB, WinnerDraw:
		return true
	}
	return false
}

// ParseWinner normalizes the spellings reasoning engines produce.
func ParseWinner(s string) (Winner, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "partya", "party_a", "party a", "a":
		return WinnerPartyA, true
	case "partyb", "party_b", "party b", "b":
		return WinnerPartyB, true
	case "draw", "tie":
		return WinnerDraw, true
	}
	return "", false
}

// AppealStatus is the processing state of an appeal.
type AppealStatus string

const (
	AppealStatusPending    AppealStatus = "pending"
	AppealStatusProcessing AppealStatus = "processing"
	AppealStatusCompleted  AppealStatus = "completed"
	AppealStatusRejected   AppealStatus = "rejected"
)

func (s AppealStatus) String() string { return string(s) }

func (s AppealStatus) IsValid() bool {
	switch s {
	case AppealStatusPending, AppealStatusProcessing, AppealStatusCompleted, AppealStatusRejected:
		return true
	}
	return false
}

// Category classifies what a dispute is about.
type Category string

const (
	CategoryRelationship Category = "relationship"
	CategoryFriendship   Category = "friendship"
	CategoryFamily       Category = "family"
	CategoryRoommate     Category = "roommate"
	CategoryWork         Category = "work"
	CategoryMoney        Category = "money"
	CategoryOther        Category = "other"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryRelationship, CategoryFriendship, CategoryFamily, CategoryRoommate,
		CategoryWork, CategoryMoney, CategoryOther:
		return true
	}
	return false
}

// Tone is the voice the judge is asked to use.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneGentle  Tone = "gentle"
	ToneBrutal  Tone = "brutal"
	ToneFunny   Tone = "funny"
)

func (t Tone) String() string { return string(t) }

func (t Tone) IsValid() bool {
	switch t {
	case ToneNeutral, ToneGentle, ToneBrutal, ToneFunny:
		return true
	}
	return false
}

// EvidenceQuality is the engine's rating of the evidence one party supplied.
type EvidenceQuality string

const (
	EvidenceQualityNone     EvidenceQuality = "none"
	EvidenceQualityWeak     EvidenceQuality = "weak"
	EvidenceQualityModerate EvidenceQuality = "moderate"
	EvidenceQualityStrong   EvidenceQuality = "strong"
)

// ParseEvidenceQuality maps unknown ratings to none.
func ParseEvidenceQuality(s string) EvidenceQuality {
	switch q := EvidenceQuality(strings.ToLower(strings.TrimSpace(s))); q {
	case EvidenceQualityWeak, EvidenceQualityModerate, EvidenceQualityStrong:
		return q
	}
	return EvidenceQualityNone
}

// Severity grades a detected manipulation pattern.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity maps unknown severities to none.
func ParseSeverity(s string) Severity {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return v
	}
	return SeverityNone
}
