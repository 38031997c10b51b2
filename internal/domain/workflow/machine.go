package workflow

// StateMachine tracks the current status of a request and validates
// transitions against the configured approval lifecycle.
type StateMachine interface {
	// Status returns the current status
	Status() Status

	// CanFire returns true if the trigger is permitted in the current status
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new status
	// if allowed
	Fire(trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the
	// current status
	PermittedTriggers() []Trigger
}

// NewApprovalMachine builds a state machine over the canonical approval
// lifecycle, starting from the given status. Terminal statuses and
// returned requests permit no triggers.
func NewApprovalMachine(initial Status) StateMachine {
	b := NewBuilder()

	b.Configure(StatusPending).
		Permit(TriggerAdvance, StatusInProgress).
		Permit(TriggerApprove, StatusApproved).
		Permit(TriggerReject, StatusRejected).
		Permit(TriggerReturn, StatusReturned).
		Permit(TriggerCancel, StatusCancelled)

	b.Configure(StatusInProgress).
		Permit(TriggerAdvance, StatusInProgress).
		Permit(TriggerApprove, StatusApproved).
		Permit(TriggerReject, StatusRejected).
		Permit(TriggerReturn, StatusReturned).
		Permit(TriggerCancel, StatusCancelled)

	return b.Build(initial)
}
