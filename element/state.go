// state.go defines the lifecycle states of an element and transitions between them.

// Package element provides the parts of the hosting pipeline an element
// interacts with: lifecycle states and the diagnostic bus.
package element

import (
	"fmt"
)

type State int

const (
	StateNull = State(iota)
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "NULL"
	case StateReady:
		return "READY"
	case StatePaused:
		return "PAUSED"
	case StatePlaying:
		return "PLAYING"
	default:
		return fmt.Sprintf("unknown-state-%d", int(s))
	}
}

// StateChange is a transition between two adjacent states.
type StateChange struct {
	From State
	To   State
}

var (
	StateChangeNullToReady     = StateChange{From: StateNull, To: StateReady}
	StateChangeReadyToPaused   = StateChange{From: StateReady, To: StatePaused}
	StateChangePausedToPlaying = StateChange{From: StatePaused, To: StatePlaying}
	StateChangePlayingToPaused = StateChange{From: StatePlaying, To: StatePaused}
	StateChangePausedToReady   = StateChange{From: StatePaused, To: StateReady}
	StateChangeReadyToNull     = StateChange{From: StateReady, To: StateNull}
)

func (c StateChange) IsDownward() bool {
	return c.To < c.From
}

// TearsDownFlow returns true for the transition after which no data
// may flow anymore (PAUSED -> READY).
func (c StateChange) TearsDownFlow() bool {
	return c.From >= StatePaused && c.To <= StateReady
}

func (c StateChange) String() string {
	return fmt.Sprintf("%s->%s", c.From, c.To)
}

// Steps returns the chain of adjacent transitions from one state to another.
func Steps(from, to State) []StateChange {
	var result []StateChange
	for from != to {
		next := from + 1
		if to < from {
			next = from - 1
		}
		result = append(result, StateChange{From: from, To: next})
		from = next
	}
	return result
}
