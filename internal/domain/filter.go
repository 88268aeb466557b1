package domain

import "time"

// CaseFilter selects cases for maintenance sweeps.
// Zero-valued fields do not restrict the result.
type CaseFilter struct {
	Status        CaseStatus
	Responded     *bool
	UpdatedBefore *time.Time
	ExpiresBefore *time.Time
	Limit         int
}

// Matches reports whether c satisfies the filter (Limit is ignored).
func (f CaseFilter) Matches(c *Case) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Responded != nil && c.HasResponse() != *f.Responded {
		return false
	}
	if f.UpdatedBefore != nil && !c.UpdatedAt.Before(*f.UpdatedBefore) {
		return false
	}
	if f.ExpiresBefore != nil && c.ExpiresAt.After(*f.ExpiresBefore) {
		return false
	}
	return true
}
