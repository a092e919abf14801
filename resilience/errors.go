package resilience

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCircuitOpen is returned when a callable's breaker refuses the call.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// CircuitOpenError names the callable whose breaker refused a call.
type CircuitOpenError struct {
	Path []string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resilience: circuit open at %q", strings.Join(e.Path, "."))
}

func (e *CircuitOpenError) Unwrap() error { return ErrCircuitOpen }
