package entity

import (
	"fmt"
	"sort"
	"time"
)

// WorkflowStep is one stage of a template, naming the role required to
// approve at that stage. Order values are 1-based and strictly sequential.
type WorkflowStep struct {
	StepName     string `json:"step_name"`
	ApproverRole string `json:"approver_role"`
	Order        int    `json:"order"`
}

// WorkflowTemplate is a named, reusable definition of an ordered approval
// step sequence. Steps are persisted as a typed JSON array and validated
// on every read.
type WorkflowTemplate struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	WorkflowType     string         `json:"workflow_type"`
	Steps            []WorkflowStep `json:"steps"`
	IsActive         bool           `json:"is_active"`
	AutoApprove      bool           `json:"auto_approve"`
	MaxDurationHours int            `json:"max_duration_hours"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NormalizeSteps sorts steps by order and validates them: every step needs
// a non-empty name, a non-empty approver role and a positive order, and
// after sorting the orders must be exactly 1..N with no gaps or repeats.
func NormalizeSteps(steps []WorkflowStep) ([]WorkflowStep, error) {
	normalized := make([]WorkflowStep, len(steps))
	copy(normalized, steps)
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Order < normalized[j].Order
	})

	for i, step := range normalized {
		if step.StepName == "" {
			return nil, fmt.Errorf("step %d: step_name is required", i+1)
		}
		if step.ApproverRole == "" {
			return nil, fmt.Errorf("step %d: approver_role is required", i+1)
		}
		if step.Order <= 0 {
			return nil, fmt.Errorf("step %d: order must be a positive integer", i+1)
		}
		if step.Order != i+1 {
			return nil, fmt.Errorf("step orders must be exactly 1..%d without gaps or repeats", len(normalized))
		}
	}

	return normalized, nil
}
