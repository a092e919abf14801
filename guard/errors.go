package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/shadowcopy/shadow"
)

// ErrViolation matches every error produced by a guard rule.
var ErrViolation = errors.New("guard: policy violation")

// ViolationError describes a rejected operation.
type ViolationError struct {
	Op     shadow.Op
	Path   []string
	Reason string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("guard: %s %q rejected: %s", e.Op, strings.Join(e.Path, "."), e.Reason)
}

// Is reports whether target is ErrViolation.
func (e *ViolationError) Is(target error) bool {
	return target == ErrViolation
}

// Deny returns a ViolationError for req.
func Deny(req *Request, reason string) error {
	return &ViolationError{Op: req.Op, Path: req.Path, Reason: reason}
}
