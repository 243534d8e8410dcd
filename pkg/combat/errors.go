package combat

import "errors"

// ErrInvalidAction is returned when loose action data cannot be decoded.
var ErrInvalidAction = errors.New("invalid action data")

// ErrInvalidParticipant is returned when a loose participant record cannot be decoded.
var ErrInvalidParticipant = errors.New("invalid participant")
