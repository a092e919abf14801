package shadow

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/jonwraymond/shadowcopy/object"
)

// Invocation describes one dispatched operation.
//
// It is valid only for the duration of the trap call it is passed to.
type Invocation struct {
	// Op is the operation kind being dispatched.
	Op Op

	// Target is the raw object behind the receiving wrapper.
	Target object.Object

	// Key is the property key; empty for ownKeys, apply and construct.
	Key string

	path    []string
	wrapper *Wrapper
}

// Path returns a copy of the keys from the root to the property being operated on.
func (inv *Invocation) Path() []string {
	return clonePath(inv.path)
}

// Wrapper returns the wrapper receiving the operation.
func (inv *Invocation) Wrapper() *Wrapper {
	return inv.wrapper
}

// Context returns the context the tree was created with.
func (inv *Invocation) Context() context.Context {
	return inv.wrapper.tree.ctx
}

// Nest returns the wrapper for raw.
//
// A wrapper already cached for raw by the receiving wrapper is returned as-is.
// Otherwise object values are wrapped with the tree's TrapSet at the current
// path and cached; any other value is returned unchanged.
func (inv *Invocation) Nest(raw any) any {
	cache := inv.wrapper.cache
	if w, ok := cache.get(raw); ok {
		return w
	}

	obj, ok := raw.(object.Object)
	if !ok || isNilPointer(raw) {
		return raw
	}

	w := newWrapper(obj, inv.wrapper.tree, inv.Path())
	cache.put(raw, w)
	return w
}

// NestKey nests the raw value currently stored at Target[Key].
func (inv *Invocation) NestKey() (any, error) {
	raw, err := inv.Target.Get(inv.Key)
	if err != nil {
		return nil, err
	}
	return inv.Nest(raw), nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// PathKey encodes path as a map key. Distinct paths always yield distinct
// keys, including paths whose property keys contain ".".
func PathKey(path []string) string {
	var b strings.Builder
	for i, k := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Quote(k))
	}
	return b.String()
}
