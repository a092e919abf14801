package object

// FuncImpl is the Go body of a callable object.
type FuncImpl func(this any, args []any) (any, error)

// CtorImpl is the Go body of a constructor.
type CtorImpl func(args []any) (any, error)

// Func is a callable object. It carries its own properties like any Map.
type Func struct {
	*Map
	fn   FuncImpl
	ctor CtorImpl
}

// NewFunc returns a callable object backed by fn.
func NewFunc(fn FuncImpl) *Func {
	return &Func{Map: NewMap(), fn: fn}
}

// NewClass returns an object that can be constructed with ctor and, when fn is
// non-nil, also called.
func NewClass(fn FuncImpl, ctor CtorImpl) *Func {
	return &Func{Map: NewMap(), fn: fn, ctor: ctor}
}

// Call invokes the function body.
func (f *Func) Call(this any, args []any) (any, error) {
	if f.fn == nil {
		return nil, ErrNotCallable
	}
	return f.fn(this, args)
}

// Construct invokes the constructor body.
func (f *Func) Construct(args []any) (any, error) {
	if f.ctor == nil {
		return nil, ErrNotConstructor
	}
	return f.ctor(args)
}

// IsConstructor reports whether f was built with a constructor body.
func (f *Func) IsConstructor() bool {
	return f.ctor != nil
}

var (
	_ Object      = (*Func)(nil)
	_ Callable    = (*Func)(nil)
	_ Constructor = (*Func)(nil)
)
