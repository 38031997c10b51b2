package workflow

import "fmt"

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a status configuration for the given status
	Configure(status Status) StatusConfiguration

	// Build creates a new state machine instance with the given initial status
	Build(initial Status) StateMachine
}

// StatusConfiguration configures transitions out of a specific status
type StatusConfiguration interface {
	// Permit allows a trigger to transition to the target status
	Permit(trigger Trigger, to Status) StatusConfiguration
}

type statusConfig struct {
	from        Status
	transitions map[Trigger]Status
}

type stateMachineBuilder struct {
	configurations map[Status]*statusConfig
}

type stateMachine struct {
	current        Status
	configurations map[Status]*statusConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[Status]*statusConfig),
	}
}

// Configure returns a status configuration for the given status
func (b *stateMachineBuilder) Configure(status Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, exists := b.configurations[status]
	if !exists {
		config = &statusConfig{
			from:        status,
			transitions: make(map[Trigger]Status),
		}
		b.configurations[status] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial status
func (b *stateMachineBuilder) Build(initial Status) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial status: %s", initial))
	}

	// Copy configurations so later builder use cannot mutate the machine
	configs := make(map[Status]*statusConfig, len(b.configurations))
	for status, config := range b.configurations {
		transitions := make(map[Trigger]Status, len(config.transitions))
		for trigger, to := range config.transitions {
			transitions[trigger] = to
		}
		configs[status] = &statusConfig{from: status, transitions: transitions}
	}

	return &stateMachine{
		current:        initial,
		configurations: configs,
	}
}

// Permit allows a trigger to transition to the target status
func (c *statusConfig) Permit(trigger Trigger, to Status) StatusConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	c.transitions[trigger] = to
	return c
}

// Status returns the current status
func (m *stateMachine) Status() Status {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current status
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}
	_, ok := config.transitions[trigger]
	return ok
}

// Fire attempts to execute the trigger, transitioning to the new status
// if allowed
func (m *stateMachine) Fire(trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire trigger %s from status %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	to, ok := config.transitions[trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from status %s", ErrInvalidTransition, trigger, m.current)
	}

	m.current = to
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current status
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}

	return triggers
}
