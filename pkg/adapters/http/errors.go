package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/gamemaster"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/aretw0/gamemaster/pkg/safety"
	"github.com/aretw0/gamemaster/pkg/session"
	"github.com/aretw0/gamemaster/pkg/tasks"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string     `json:"error"`
	Kind  fault.Kind `json:"kind"`
}

var statusByError = []struct {
	err    error
	status int
}{
	{fault.ErrInternal, http.StatusInternalServerError},
	{tasks.ErrTimeLimit, http.StatusGatewayTimeout},
	{tasks.ErrUnknownTask, http.StatusNotFound},
	{domain.ErrSessionNotFound, http.StatusNotFound},
	{domain.ErrSessionExists, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{gamemaster.ErrNotInCombat, http.StatusConflict},
	{gamemaster.ErrOutOfTurn, http.StatusConflict},
	{gamemaster.ErrNoSessions, http.StatusNotImplemented},
	{session.ErrNoCombatLog, http.StatusNotImplemented},
	{errBadRequest, http.StatusBadRequest},
	{tasks.ErrInvalidArgs, http.StatusBadRequest},
	{dice.ErrInvalidExpression, http.StatusBadRequest},
	{dice.ErrInvalidAdvantage, http.StatusBadRequest},
	{combat.ErrInvalidAction, http.StatusBadRequest},
	{combat.ErrInvalidParticipant, http.StatusBadRequest},
	{domain.ErrUnknownEvent, http.StatusBadRequest},
	{domain.ErrUnknownStatus, http.StatusBadRequest},
	{lifecycle.ErrPayloadMismatch, http.StatusBadRequest},
	{safety.ErrInputTooLarge, http.StatusBadRequest},
	{safety.ErrInvalidUTF8, http.StatusBadRequest},
}

// statusFor maps engine errors to HTTP status codes. Anything unrecognised,
// such as a store outage, is a 500.
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
