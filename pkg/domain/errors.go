package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session whose ID is already taken.
var ErrSessionExists = errors.New("session already exists")

// ErrInvalidTransition is returned when a (status, event) pair has no table entry.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrUnknownStatus is returned when parsing a status string that names no lifecycle state.
var ErrUnknownStatus = errors.New("unknown session status")

// ErrUnknownEvent is returned when parsing an event string that names no lifecycle event.
var ErrUnknownEvent = errors.New("unknown session event")
