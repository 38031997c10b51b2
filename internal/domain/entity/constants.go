package entity

// Priority constants for ApprovalRequest
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriorities lists the accepted request priorities.
var ValidPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// RoleAdmin gates template mutation and delegation administration.
// Role comparison everywhere is case-sensitive exact match.
const RoleAdmin = "admin"
