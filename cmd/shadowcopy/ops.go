package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/shadowcopy/shadow"
)

var errBadOperation = errors.New("invalid operation")

type opKind string

const (
	opGet    opKind = "get"
	opHas    opKind = "has"
	opKeys   opKind = "keys"
	opSet    opKind = "set"
	opDelete opKind = "delete"
)

// operation is one positional argument of the trace command, written as
// kind:dotted.path or set:dotted.path=value.
type operation struct {
	kind  opKind
	path  []string
	value string
}

func (o operation) pathString() string {
	return strings.Join(o.path, ".")
}

func parseOperation(s string) (operation, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return operation{}, fmt.Errorf("%w %q: expected kind:path", errBadOperation, s)
	}

	op := operation{kind: opKind(kind)}
	switch op.kind {
	case opSet:
		path, value, ok := strings.Cut(rest, "=")
		if !ok {
			return operation{}, fmt.Errorf("%w %q: set needs path=value", errBadOperation, s)
		}
		rest, op.value = path, value
	case opGet, opHas, opKeys, opDelete:
	default:
		return operation{}, fmt.Errorf("%w %q: unknown kind %q", errBadOperation, s, kind)
	}

	if rest != "" {
		op.path = strings.Split(rest, ".")
	}
	if len(op.path) == 0 && op.kind != opKeys {
		return operation{}, fmt.Errorf("%w %q: empty path", errBadOperation, s)
	}
	for _, k := range op.path {
		if k == "" {
			return operation{}, fmt.Errorf("%w %q: empty path segment", errBadOperation, s)
		}
	}
	return op, nil
}

// resolve walks path from root with property reads, so every step goes through
// the traps.
func resolve(root *shadow.Wrapper, path []string) (*shadow.Wrapper, error) {
	cur := root
	for i, key := range path {
		v, err := cur.Get(key)
		if err != nil {
			return nil, err
		}
		next, ok := v.(*shadow.Wrapper)
		if !ok {
			return nil, fmt.Errorf("%s is not an object", strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}
