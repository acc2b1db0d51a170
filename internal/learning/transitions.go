// Package learning contains the roadmap business logic: AI-backed roadmap
// generation, module sequencing, assessments and progress tracking. It is
// transport-agnostic.
//
// Module state graph:
//
//	LOCKED ──► UNLOCKED ──► COMPLETED
//
// COMPLETED is terminal. A module unlocks only when its predecessor in the
// roadmap completes; the first module starts unlocked.
package learning

import "fmt"

// ModuleState is the derived unlock state of a roadmap module.
type ModuleState string

const (
	StateLocked    ModuleState = "LOCKED"
	StateUnlocked  ModuleState = "UNLOCKED"
	StateCompleted ModuleState = "COMPLETED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[ModuleState][]ModuleState{
	StateLocked:   {StateUnlocked},
	StateUnlocked: {StateCompleted},
	// COMPLETED is terminal — no outgoing transitions
}

// ParseModuleState converts a raw string to a ModuleState, returning an
// error for unknown values.
func ParseModuleState(s string) (ModuleState, error) {
	st := ModuleState(s)
	switch st {
	case StateLocked, StateUnlocked, StateCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown module state %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by
// the state machine.
func IsTransitionAllowed(from, to ModuleState) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateOf derives a module's state from its stored flags. Completion wins
// over the lock flag so a completed module never reads as locked.
func StateOf(isCompleted, isLocked bool) ModuleState {
	switch {
	case isCompleted:
		return StateCompleted
	case isLocked:
		return StateLocked
	default:
		return StateUnlocked
	}
}
