package entity

import (
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
)

// ApprovalRequest is a concrete instance of a template being approved.
// StepsSnapshot is copied from the template at creation time; later
// template edits never affect it.
//
// Invariant: CurrentStep, when non-nil, is a valid 1-based index into
// StepsSnapshot and CurrentApproverRole equals
// StepsSnapshot[*CurrentStep-1].ApproverRole.
type ApprovalRequest struct {
	ID                  string          `json:"id"`
	WorkflowID          string          `json:"workflow_id"`
	WorkflowType        string          `json:"workflow_type"`
	RequesterID         string          `json:"requester_id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	RequestType         string          `json:"request_type"`
	Priority            string          `json:"priority"`
	DueDate             *time.Time      `json:"due_date,omitempty"`
	StepsSnapshot       []WorkflowStep  `json:"steps_snapshot"`
	Status              workflow.Status `json:"status"`
	CurrentStep         *int            `json:"current_step,omitempty"`
	CurrentApproverRole *string         `json:"current_approver_role,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CurrentStepDef returns the snapshot step the request is waiting on, or
// nil when the request is past its last step.
func (r *ApprovalRequest) CurrentStepDef() *WorkflowStep {
	if r.CurrentStep == nil {
		return nil
	}
	idx := *r.CurrentStep - 1
	if idx < 0 || idx >= len(r.StepsSnapshot) {
		return nil
	}
	return &r.StepsSnapshot[idx]
}

// AtLastStep returns true when the request is on the final snapshot step.
func (r *ApprovalRequest) AtLastStep() bool {
	return r.CurrentStep != nil && *r.CurrentStep == len(r.StepsSnapshot)
}

// RequestStatistics aggregates request counts and processing time.
type RequestStatistics struct {
	Total                  int            `json:"total"`
	ByStatus               map[string]int `json:"by_status"`
	ByRequestType          map[string]int `json:"by_request_type"`
	ByPriority             map[string]int `json:"by_priority"`
	AverageProcessingHours float64        `json:"average_processing_hours"`
}
