// Package observe provides observability for shadow trap dispatch.
//
// It is a pure instrumentation library: Middleware decorates a shadow.TrapSet
// so every dispatched operation is traced, counted and logged, while results
// and errors pass through unchanged. NewObserver wires OpenTelemetry providers
// from a Config, which LoadConfig reads from YAML and the environment.
package observe
