/*
Package ports defines the driven ports (interfaces) of the gamemaster engine.

These interfaces decouple the session and combat core from external
implementations, so the same engine runs against memory, file or redis
persistence and against any narration or moderation backend.

# Key Interfaces

  - SessionStore: persists and loads SessionState snapshots.
  - CombatLog: appends and lists the TurnRecords of a session.
  - DistributedLocker: distributed locking for concurrent session access.
  - Narrator: streams narration text for a scene, action or transition.
  - Moderator: screens text before it reaches players.
*/
package ports
