/*
Package tasks models the distributed task-queue boundary in process.

A Registry maps task names (such as "dice.roll" or "combat.resolve_attack")
to functions taking loose JSON-like arguments. Execute enforces the queue's
time limits: past the soft limit a warning is logged, at the hard limit the
task's context is cancelled and ErrTimeLimit is returned. A panic inside a
task is returned as a *fault.Error rather than crashing the worker.
*/
package tasks
