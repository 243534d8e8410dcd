/*
Package gamemaster orchestrates tabletop role-playing sessions.

The core is three packages: pkg/lifecycle (the session state machine),
pkg/combat (initiative, attacks, saves, turns and end-of-combat checks) and
pkg/dice (the dice expression engine). This package wires them behind a
single Engine whose operations are traced, timed and reported to
observability hooks, and which dispatches the effects a lifecycle
transition asks for.

# Usage

	store := memory.NewStore()
	mgr := session.NewManager(store, session.WithCombatLog(memory.NewCombatLog()))
	eng := gamemaster.New(gamemaster.WithSessions(mgr), gamemaster.WithSeed(42))

	ctx := context.Background()
	if _, err := mgr.Create(ctx, "session-1", "campaign-1"); err != nil {
		log.Fatal(err)
	}
	out, err := eng.Transition(ctx, "session-1", domain.EventStart, nil)

Every engine operation is also available as a named task (see
RegisterTasks) taking loose JSON-like arguments, which is how the HTTP and
MCP adapters and the CLI reach it.

# Errors

Expected rejections (bad dice expressions, illegal transitions, unknown
sessions) are returned as domain errors. Anything unexpected inside an
operation is returned as a *fault.Error and never crashes the caller.
*/
package gamemaster
