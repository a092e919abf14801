package object

// Object is the generic property interface.
//
// Contract:
//   - Get returns (nil, nil) for an absent key.
//   - Set, Delete and DefineProperty report refusal with false, not an error.
//   - Delete of an absent key reports true.
//   - OwnKeys returns keys in insertion order.
//   - Errors are reserved for operations that fail outright (e.g. a trap raising).
type Object interface {
	Get(key string) (any, error)
	Set(key string, value any) (bool, error)
	Has(key string) (bool, error)
	Delete(key string) (bool, error)
	DefineProperty(key string, desc Descriptor) (bool, error)
	GetOwnPropertyDescriptor(key string) (Descriptor, bool, error)
	OwnKeys() ([]string, error)
}

// Callable is implemented by values that can be invoked.
type Callable interface {
	Call(this any, args []any) (any, error)
}

// Constructor is implemented by values that can build new instances.
type Constructor interface {
	Construct(args []any) (any, error)
}

// Descriptor describes a single own property.
type Descriptor struct {
	Value        any
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// DataDescriptor returns a writable, enumerable, configurable descriptor for v.
func DataDescriptor(v any) Descriptor {
	return Descriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// IsObject reports whether v participates in the object model.
func IsObject(v any) bool {
	_, ok := v.(Object)
	return ok
}

// Apply invokes target as a function.
func Apply(target any, this any, args []any) (any, error) {
	fn, ok := target.(Callable)
	if !ok {
		return nil, ErrNotCallable
	}
	return fn.Call(this, args)
}

// Construct invokes target as a constructor.
func Construct(target any, args []any) (any, error) {
	ctor, ok := target.(Constructor)
	if !ok {
		return nil, ErrNotConstructor
	}
	return ctor.Construct(args)
}
