package entity

import "time"

// Delegation is a time-bounded grant letting one identity exercise
// another identity's approval authority. DelegatorRole is the role claim
// of the delegator captured at creation; WorkflowType, when set, limits
// the grant to requests of that workflow type.
type Delegation struct {
	ID            string     `json:"id"`
	DelegatorID   string     `json:"delegator_id"`
	DelegatorRole string     `json:"delegator_role"`
	DelegateID    string     `json:"delegate_id"`
	WorkflowType  *string    `json:"workflow_type,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CoversDate returns true when the given date falls inside the delegation
// window. The window is inclusive on both ends; a nil end date means the
// grant is open-ended.
func (d *Delegation) CoversDate(on time.Time) bool {
	day := on.Truncate(24 * time.Hour)
	if day.Before(d.StartDate.Truncate(24 * time.Hour)) {
		return false
	}
	if d.EndDate != nil && day.After(d.EndDate.Truncate(24*time.Hour)) {
		return false
	}
	return true
}
