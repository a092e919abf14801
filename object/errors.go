package object

import "errors"

// Sentinel errors raised by the generic operations.
var (
	// ErrNotCallable is returned when Apply targets a value that cannot be called.
	ErrNotCallable = errors.New("object: value is not callable")

	// ErrNotConstructor is returned when Construct targets a value that cannot be constructed.
	ErrNotConstructor = errors.New("object: value is not a constructor")
)
