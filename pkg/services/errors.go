package services

import "errors"

var (
	// ErrNotFound marks a lookup for an unknown generation, or a
	// conversation requested before the generation is terminal.
	ErrNotFound = errors.New("generation not found")

	// ErrAlreadyExists marks a submission reusing an existing
	// generation ID.
	ErrAlreadyExists = errors.New("generation already exists")

	// ErrTerminal marks an update attempted against a generation that
	// already reached a terminal state.
	ErrTerminal = errors.New("generation is in a terminal state")
)
