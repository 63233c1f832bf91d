package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"safiri-mazao-api/models"
)

// ErrInvalidTransition is returned when the active policy rejects a status change
var ErrInvalidTransition = errors.New("invalid transition")

// Policy selects how strictly status changes are checked
type Policy string

const (
	// Permissive allows any status to follow any other (the dashboard's historic behaviour)
	Permissive Policy = "permissive"
	// Strict enforces the forward lifecycle with cancellation from non-terminal states
	Strict Policy = "strict"
)

// Transition defines a valid state change
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// strictTransitions is the authoritative lifecycle for the strict policy
var strictTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusAccepted},
	{From: models.StatusPending, To: models.StatusCancelled},
	{From: models.StatusAccepted, To: models.StatusInProgress},
	{From: models.StatusAccepted, To: models.StatusCancelled},
	{From: models.StatusInProgress, To: models.StatusInTransit},
	{From: models.StatusInProgress, To: models.StatusCancelled},
	{From: models.StatusInTransit, To: models.StatusDelivered},
	{From: models.StatusInTransit, To: models.StatusCancelled},
}

// Machine checks order status changes against a policy
type Machine struct {
	policy      Policy
	transitions []Transition
	lookup      map[Transition]bool
}

// ParsePolicy maps a config value to a Policy, defaulting to Permissive
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Permissive:
		return Permissive, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("unknown status policy %q", s)
}

func New(p Policy) *Machine {
	m := &Machine{policy: p, lookup: map[Transition]bool{}}
	if p == Strict {
		m.transitions = strictTransitions
	} else {
		m.policy = Permissive
		for _, from := range models.AllOrderStatuses() {
			for _, to := range models.AllOrderStatuses() {
				m.transitions = append(m.transitions, Transition{From: from, To: to})
			}
		}
	}
	for _, t := range m.transitions {
		m.lookup[t] = true
	}
	return m
}

func (m *Machine) Policy() Policy { return m.policy }

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine) ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	nexts := []models.OrderStatus{}
	seen := map[models.OrderStatus]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether the policy allows moving from one state to another
func (m *Machine) CanTransition(from, to models.OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if m.lookup[Transition{From: from, To: to}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed. Valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, from, m.describeValidFrom(from))
}

func (m *Machine) describeValidFrom(status models.OrderStatus) string {
	nexts := m.ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Transitions returns the full state machine for documentation
func (m *Machine) Transitions() []Transition {
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// TerminalStates lists the states with no outgoing transition
func (m *Machine) TerminalStates() []models.OrderStatus {
	out := []models.OrderStatus{}
	for _, s := range models.AllOrderStatuses() {
		if len(m.ValidTransitionsFrom(s)) == 0 {
			out = append(out, s)
		}
	}
	return out
}
