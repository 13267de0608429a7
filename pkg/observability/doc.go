/*
Package observability turns engine lifecycle events into metrics and logs.

Metrics registers Prometheus collectors on a private registry and exposes them
through Hooks and Handler. LogHooks writes the same events to a slog.Logger.
Combine fans one event out to several hook sets.
*/
package observability
