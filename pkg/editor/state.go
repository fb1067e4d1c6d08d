package editor

import "fmt"

// State is the lifecycle state of a modal.
type State string

const (
	StateViewing   State = "viewing"
	StateSelected  State = "selected"
	StateEditing   State = "editing"
	StateSaving    State = "saving"
	StateDeleting  State = "deleting"
	StateCancelled State = "cancelled"
	StateRemoved   State = "removed"
)

var transitions = map[State][]State{
	StateViewing:  {StateSelected},
	StateSelected: {StateEditing, StateCancelled},
	StateEditing:  {StateSaving, StateDeleting, StateCancelled},
	StateSaving:   {StateViewing, StateEditing},
	StateDeleting: {StateRemoved, StateEditing},
}

// Terminal reports whether the modal is finished.
func (s State) Terminal() bool {
	switch s {
	case StateViewing, StateCancelled, StateRemoved:
		return true
	}
	return false
}

// Busy reports whether an operation is in flight.
func (s State) Busy() bool {
	return s == StateSaving || s == StateDeleting
}

func canTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if canTransition(from, to) {
		return nil
	}
	if from.Busy() {
		return ErrBusy
	}
	if from.Terminal() && from != StateViewing {
		return ErrClosed
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
}
