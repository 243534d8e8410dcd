/*
Package session implements session management and persistence orchestration.

The Manager gives each lifecycle transition the exclusive scope it assumes:
a reference-counted in-process mutex per session, optionally backed by a
distributed lock so several replicas can share one store. Within that scope
it loads the session, applies the lifecycle machine, commits the new state
and reports the attempt through domain.Hooks.
*/
package session
