package shadow

import "errors"

// ErrUnknownOp is returned by ParseOp for names that are not trap names.
var ErrUnknownOp = errors.New("shadow: unknown operation kind")
