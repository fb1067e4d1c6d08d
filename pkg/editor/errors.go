package editor

import "errors"

var (
	// ErrBusy is returned while a save or delete is in flight.
	ErrBusy = errors.New("editor: operation in progress")
	// ErrValidation wraps the forms.ValidationErrors of a rejected save.
	ErrValidation = errors.New("editor: validation failed")
	// ErrClosed is returned by modals that finished and by closed sessions.
	ErrClosed = errors.New("editor: closed")
	// ErrInvalidState is returned for transitions the state machine does
	// not allow.
	ErrInvalidState = errors.New("editor: invalid state transition")
	// ErrUnknownType is returned when a block is added with a slug that
	// does not resolve in the target registry.
	ErrUnknownType = errors.New("editor: unknown type")
)
