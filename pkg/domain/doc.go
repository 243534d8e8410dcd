/*
Package domain contains the shared session model of the game master engine.

It defines the macro status of a campaign session, the events that drive it,
and the hook types used to observe engine operations. This package is kept
pure and free of external dependencies like I/O or persistence.

# Key Entities

  - SessionState: the persisted snapshot of a session (status and timestamps).
  - SessionStatus: one of the nine lifecycle states.
  - SessionEvent: an input to the lifecycle state machine.
  - Hooks: callbacks fired at engine operation and transition boundaries.
*/
package domain
