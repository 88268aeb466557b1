package domain

// QuotaStatus answers "may this identity spend a verdict today".
type QuotaStatus struct {
	CanUse    bool
	Remaining int
	Used      int
	Limit     int
}

// NewQuotaStatus derives the status for a given usage and daily limit.
func NewQuotaStatus(used, limit int) QuotaStatus {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{
		CanUse:    used < limit,
		Remaining: remaining,
		Used:      used,
		Limit:     limit,
	}
}
