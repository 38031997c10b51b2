package entity

import (
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
)

// ApprovalHistory is one immutable audit record of a single
// approve/reject/return/cancel action. Entries are append-only, written
// exclusively by the transition
// engine inside the same transaction as the status change, and never
// updated or deleted.
type ApprovalHistory struct {
	ID         int64           `json:"id"`
	RequestID  string          `json:"request_id"`
	ActorID    string          `json:"actor_id"`
	Action     workflow.Action `json:"action"`
	Comments   string          `json:"comments,omitempty"`
	StepNumber int             `json:"step_number"`
	CreatedAt  time.Time       `json:"created_at"`
}
