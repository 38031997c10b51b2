package workflow

import "errors"

// ErrInvalidTransition is returned when a status transition is not allowed
var ErrInvalidTransition = errors.New("invalid status transition")
