package shadow

import "fmt"

// Op identifies an interceptable operation kind.
type Op int

const (
	OpGet Op = iota
	OpSet
	OpHas
	OpDeleteProperty
	OpDefineProperty
	OpGetOwnPropertyDescriptor
	OpOwnKeys
	OpApply
	OpConstruct
)

var opNames = [...]string{
	OpGet:                      "get",
	OpSet:                      "set",
	OpHas:                      "has",
	OpDeleteProperty:           "deleteProperty",
	OpDefineProperty:           "defineProperty",
	OpGetOwnPropertyDescriptor: "getOwnPropertyDescriptor",
	OpOwnKeys:                  "ownKeys",
	OpApply:                    "apply",
	OpConstruct:                "construct",
}

// Ops returns every operation kind in declaration order.
func Ops() []Op {
	ops := make([]Op, len(opNames))
	for i := range opNames {
		ops[i] = Op(i)
	}
	return ops
}

// String returns the trap name of the operation.
func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// ParseOp returns the operation kind for a trap name.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// HasKey reports whether the operation addresses a single property key.
func (o Op) HasKey() bool {
	switch o {
	case OpGet, OpSet, OpHas, OpDeleteProperty, OpDefineProperty, OpGetOwnPropertyDescriptor:
		return true
	default:
		return false
	}
}

// MayErase reports whether the operation can replace or remove the value
// stored at its key.
func (o Op) MayErase() bool {
	switch o {
	case OpSet, OpDeleteProperty, OpDefineProperty:
		return true
	default:
		return false
	}
}

// MarshalText encodes the operation as its trap name.
func (o Op) MarshalText() ([]byte, error) {
	if o < 0 || int(o) >= len(opNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOp, int(o))
	}
	return []byte(opNames[o]), nil
}

// UnmarshalText decodes a trap name.
func (o *Op) UnmarshalText(text []byte) error {
	op, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
