package shadow

import "github.com/jonwraymond/shadowcopy/object"

// TrapSet holds one optional callback per operation kind.
//
// Contract:
//   - A nil slot means "use the default behavior" (see Defaults).
//   - A filled slot fully replaces the default: it is responsible for mutating
//     target if desired and for the returned value. A Get trap's result is
//     returned as-is; call inv.NestKey or inv.Nest to keep interception going.
//   - Errors returned by a slot propagate unchanged to the caller.
//   - A TrapSet must not be mutated after it is passed to New; every wrapper of
//     the tree shares it.
type TrapSet struct {
	Get                      func(inv *Invocation, target object.Object, key string) (any, error)
	Set                      func(inv *Invocation, target object.Object, key string, value any) (bool, error)
	Has                      func(inv *Invocation, target object.Object, key string) (bool, error)
	DeleteProperty           func(inv *Invocation, target object.Object, key string) (bool, error)
	DefineProperty           func(inv *Invocation, target object.Object, key string, desc object.Descriptor) (bool, error)
	GetOwnPropertyDescriptor func(inv *Invocation, target object.Object, key string) (object.Descriptor, bool, error)
	OwnKeys                  func(inv *Invocation, target object.Object) ([]string, error)
	Apply                    func(inv *Invocation, target object.Object, this any, args []any) (any, error)
	Construct                func(inv *Invocation, target object.Object, args []any) (any, error)
}

// Defines reports whether the slot for op is filled.
func (t TrapSet) Defines(op Op) bool {
	switch op {
	case OpGet:
		return t.Get != nil
	case OpSet:
		return t.Set != nil
	case OpHas:
		return t.Has != nil
	case OpDeleteProperty:
		return t.DeleteProperty != nil
	case OpDefineProperty:
		return t.DefineProperty != nil
	case OpGetOwnPropertyDescriptor:
		return t.GetOwnPropertyDescriptor != nil
	case OpOwnKeys:
		return t.OwnKeys != nil
	case OpApply:
		return t.Apply != nil
	case OpConstruct:
		return t.Construct != nil
	default:
		return false
	}
}

// Ops returns the filled slots in declaration order.
func (t TrapSet) Ops() []Op {
	var ops []Op
	for _, op := range Ops() {
		if t.Defines(op) {
			ops = append(ops, op)
		}
	}
	return ops
}

// Defaults returns the pass-through behavior for every operation kind.
//
// get nests the raw value at target[key]; every other kind delegates to the
// equivalent generic operation on target with unmodified arguments.
func Defaults() TrapSet {
	return TrapSet{
		Get: func(inv *Invocation, _ object.Object, _ string) (any, error) {
			return inv.NestKey()
		},
		Set: func(_ *Invocation, target object.Object, key string, value any) (bool, error) {
			return target.Set(key, value)
		},
		Has: func(_ *Invocation, target object.Object, key string) (bool, error) {
			return target.Has(key)
		},
		DeleteProperty: func(_ *Invocation, target object.Object, key string) (bool, error) {
			return target.Delete(key)
		},
		DefineProperty: func(_ *Invocation, target object.Object, key string, desc object.Descriptor) (bool, error) {
			return target.DefineProperty(key, desc)
		},
		GetOwnPropertyDescriptor: func(_ *Invocation, target object.Object, key string) (object.Descriptor, bool, error) {
			return target.GetOwnPropertyDescriptor(key)
		},
		OwnKeys: func(_ *Invocation, target object.Object) ([]string, error) {
			return target.OwnKeys()
		},
		Apply: func(_ *Invocation, target object.Object, this any, args []any) (any, error) {
			return object.Apply(target, this, args)
		},
		Construct: func(_ *Invocation, target object.Object, args []any) (any, error) {
			return object.Construct(target, args)
		},
	}
}

// Compose returns user with every empty slot filled from Defaults.
func Compose(user TrapSet) TrapSet {
	d := Defaults()
	if user.Get == nil {
		user.Get = d.Get
	}
	if user.Set == nil {
		user.Set = d.Set
	}
	if user.Has == nil {
		user.Has = d.Has
	}
	if user.DeleteProperty == nil {
		user.DeleteProperty = d.DeleteProperty
	}
	if user.DefineProperty == nil {
		user.DefineProperty = d.DefineProperty
	}
	if user.GetOwnPropertyDescriptor == nil {
		user.GetOwnPropertyDescriptor = d.GetOwnPropertyDescriptor
	}
	if user.OwnKeys == nil {
		user.OwnKeys = d.OwnKeys
	}
	if user.Apply == nil {
		user.Apply = d.Apply
	}
	if user.Construct == nil {
		user.Construct = d.Construct
	}
	return user
}
