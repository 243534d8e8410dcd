// Package lifecycle implements the session lifecycle state machine.
//
// The machine validates a (status, event) pair against a fixed transition
// table, applies the matching handler to a SessionState and returns an
// optional Effect describing follow-up work. It never calls the combat engine,
// narration or persistence itself: dispatching effects and committing the
// new state is the caller's job, as is holding an exclusive lock on the
// session for the duration of a transition.
//
// Transition table:
//
//	CREATED                      START            STAGING    (sets StartedAt)
//	PAUSED                       START            EXPLORING
//	EXPLORING/ENCOUNTER/COMBAT   PAUSE            PAUSED
//	EXPLORING                    ENCOUNTER_START  ENCOUNTER  (encounter_init effect)
//	ENCOUNTER                    COMBAT_START     COMBAT     (combat_init effect)
//	COMBAT                       COMBAT_END       EXPLORING
//	PAUSED                       RESUME           EXPLORING
//	any non-terminal             END              COMPLETED  (sets EndedAt, session_wrap_up effect)
package lifecycle
