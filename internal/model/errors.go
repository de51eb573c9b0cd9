package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrAlreadyTerminal is returned when mutating a resource that already
	// reached a terminal state.
	ErrAlreadyTerminal = errors.New("already in a terminal state")
	// ErrLaunch is returned when an OS process cannot be resolved or spawned.
	ErrLaunch = errors.New("could not launch process")
	// ErrDirCreation is returned when session directories cannot be provisioned.
	ErrDirCreation = errors.New("could not create directory")
	// ErrPlanning is returned when the model call for task planning fails.
	ErrPlanning = errors.New("planning failed")
	// ErrExecution is returned when the model call for a sub-task fails.
	ErrExecution = errors.New("sub-task execution failed")
)
