package guard

import (
	"slices"
	"strings"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

// Request is what a Rule inspects.
type Request struct {
	// Op is the operation kind being attempted.
	Op shadow.Op

	// Path is the root-relative path of the property, or of the callable for
	// apply and construct.
	Path []string

	// Key is the property key; empty for apply and construct.
	Key string

	// Value is the value being written, or nil for deletes and invocations.
	Value any

	// Args holds the arguments of apply and construct.
	Args []any
}

// Rule decides whether a request may proceed. A nil error allows it.
type Rule func(req *Request) error

// PrivatePrefix rejects writes, deletes and definitions of keys that start
// with prefix.
func PrivatePrefix(prefix string) Rule {
	return func(req *Request) error {
		if !req.Op.MayErase() || !strings.HasPrefix(req.Key, prefix) {
			return nil
		}
		return Deny(req, "private property")
	}
}

// ReadOnly rejects writes, deletes and definitions at or under any of the
// dotted paths. A dotted path cannot name a key that itself contains "."; use
// ReadOnlyPaths for those.
func ReadOnly(paths ...string) Rule {
	prefixes := make([][]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		prefixes = append(prefixes, strings.Split(p, "."))
	}
	return ReadOnlyPaths(prefixes...)
}

// ReadOnlyPaths is ReadOnly with each path given as its key segments.
func ReadOnlyPaths(paths ...[]string) Rule {
	prefixes := make([][]string, 0, len(paths))
	for _, p := range paths {
		if len(p) > 0 {
			prefixes = append(prefixes, slices.Clone(p))
		}
	}

	return func(req *Request) error {
		if !req.Op.MayErase() {
			return nil
		}
		for _, prefix := range prefixes {
			if hasPrefix(req.Path, prefix) {
				return Deny(req, "read-only path "+strings.Join(prefix, "."))
			}
		}
		return nil
	}
}

// DenyOps rejects whole operation kinds.
func DenyOps(ops ...shadow.Op) Rule {
	return func(req *Request) error {
		if slices.Contains(ops, req.Op) {
			return Deny(req, "operation not allowed")
		}
		return nil
	}
}

func hasPrefix(path, prefix []string) bool {
	return len(path) >= len(prefix) && slices.Equal(path[:len(prefix)], prefix)
}

// Traps returns a trap set enforcing rules on every operation kind. Rules run
// in order. Allowed operations fall through to the default behavior.
func Traps(rules ...Rule) shadow.TrapSet {
	return Chain(shadow.TrapSet{}, rules...)
}

// Chain returns next with rules enforced in front of every slot. Empty slots
// of next use the default behavior.
func Chain(next shadow.TrapSet, rules ...Rule) shadow.TrapSet {
	c := shadow.Compose(next)
	out := next

	check := func(inv *shadow.Invocation, value any, args []any) error {
		req := &Request{Op: inv.Op, Path: inv.Path(), Key: inv.Key, Value: value, Args: args}
		for _, rule := range rules {
			if err := rule(req); err != nil {
				return err
			}
		}
		return nil
	}

	out.Get = func(inv *shadow.Invocation, target object.Object, key string) (any, error) {
		if err := check(inv, nil, nil); err != nil {
			return nil, err
		}
		return c.Get(inv, target, key)
	}
	out.Has = func(inv *shadow.Invocation, target object.Object, key string) (bool, error) {
		if err := check(inv, nil, nil); err != nil {
			return false, err
		}
		return c.Has(inv, target, key)
	}
	out.GetOwnPropertyDescriptor = func(inv *shadow.Invocation, target object.Object, key string) (object.Descriptor, bool, error) {
		if err := check(inv, nil, nil); err != nil {
			return object.Descriptor{}, false, err
		}
		return c.GetOwnPropertyDescriptor(inv, target, key)
	}
	out.OwnKeys = func(inv *shadow.Invocation, target object.Object) ([]string, error) {
		if err := check(inv, nil, nil); err != nil {
			return nil, err
		}
		return c.OwnKeys(inv, target)
	}
	out.Set = func(inv *shadow.Invocation, target object.Object, key string, value any) (bool, error) {
		if err := check(inv, value, nil); err != nil {
			return false, err
		}
		return c.Set(inv, target, key, value)
	}
	out.DeleteProperty = func(inv *shadow.Invocation, target object.Object, key string) (bool, error) {
		if err := check(inv, nil, nil); err != nil {
			return false, err
		}
		return c.DeleteProperty(inv, target, key)
	}
	out.DefineProperty = func(inv *shadow.Invocation, target object.Object, key string, desc object.Descriptor) (bool, error) {
		if err := check(inv, desc.Value, nil); err != nil {
			return false, err
		}
		return c.DefineProperty(inv, target, key, desc)
	}
	out.Apply = func(inv *shadow.Invocation, target object.Object, this any, args []any) (any, error) {
		if err := check(inv, nil, args); err != nil {
			return nil, err
		}
		return c.Apply(inv, target, this, args)
	}
	out.Construct = func(inv *shadow.Invocation, target object.Object, args []any) (any, error) {
		if err := check(inv, nil, args); err != nil {
			return nil, err
		}
		return c.Construct(inv, target, args)
	}
	return out
}
