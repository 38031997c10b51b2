package workflow

// Trigger represents an event that can cause a status transition
type Trigger string

const (
	// TriggerAdvance moves an actionable request to the next step.
	TriggerAdvance Trigger = "ADVANCE"
	// TriggerApprove approves the final step.
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerReturn  Trigger = "RETURN"
	TriggerCancel  Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Action identifies an audit-trail entry written by the transition engine.
type Action string

const (
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionReturned  Action = "returned"
	ActionCancelled Action = "cancelled"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
