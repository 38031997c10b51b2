package workflow

// Status represents a request status in the approval lifecycle
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusReturned   Status = "returned"
	StatusCancelled  Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusApproved:   true,
	StatusRejected:   true,
	StatusReturned:   true,
	StatusCancelled:  true,
}

// terminalStatuses are final and immutable; no transition leaves them.
var terminalStatuses = map[Status]bool{
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// actionableStatuses accept approve/reject/return/cancel actions.
var actionableStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
}

// IsTerminal returns true if the status is final (approved, rejected or
// cancelled). A returned request is not terminal in this sense but it is
// not actionable either; it is distinguished from rejection for reporting.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsActionable returns true if approve/reject/return/cancel may be
// attempted against a request in this status.
func (s Status) IsActionable() bool {
	return actionableStatuses[s]
}

// IsValid returns true if the status is a known lifecycle status.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// TerminalStatuses returns the statuses counted as terminal for
// processing-time statistics.
func TerminalStatuses() []Status {
	return []Status{StatusApproved, StatusRejected, StatusCancelled}
}
