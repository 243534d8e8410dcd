package tasks

import "errors"

var (
	// ErrUnknownTask is returned by Execute for an unregistered name.
	ErrUnknownTask = errors.New("unknown task")
	// ErrInvalidArgs wraps argument decoding failures.
	ErrInvalidArgs = errors.New("invalid task arguments")
	// ErrTimeLimit is returned when a task outlives the hard time limit.
	ErrTimeLimit = errors.New("task exceeded hard time limit")
)
