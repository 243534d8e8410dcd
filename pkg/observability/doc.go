/*
Package observability turns engine hooks into Prometheus metrics and
structured log lines.

Metrics.Hooks and LogHooks both return domain.Hooks; combine them with
domain.Hooks.Merge and hand the result to the engine and the session manager.
*/
package observability
