package shadow

import (
	"context"
	"strings"

	"github.com/jonwraymond/shadowcopy/object"
)

// tree is the state shared by a root wrapper and every wrapper nested under it.
type tree struct {
	user    TrapSet
	traps   TrapSet
	tracker *Tracker
	ctx     context.Context
}

// Wrapper is an interception facade over exactly one target.
//
// Contract:
//   - Any operation whose TrapSet slot is empty behaves like the same operation
//     on the target, except that object values read through get are wrapped.
//   - Nested wrappers are cached per wrapper; see the package documentation.
//   - Wrapper implements object.Object, object.Callable and object.Constructor.
type Wrapper struct {
	target object.Object
	tree   *tree
	path   []string
	cache  *nestCache
}

// Option configures a wrapper tree.
type Option func(*options)

type options struct {
	path    []string
	tracker *Tracker
	ctx     context.Context
}

// WithPath sets the path of the root wrapper relative to a conceptual root.
func WithPath(prefix ...string) Option {
	return func(o *options) {
		o.path = clonePath(prefix)
	}
}

// WithTracker shares tracker with the tree instead of creating a new one.
func WithTracker(tracker *Tracker) Option {
	return func(o *options) {
		o.tracker = tracker
	}
}

// WithContext sets the context returned by Invocation.Context.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// New wraps target with traps.
func New(target object.Object, traps TrapSet, opts ...Option) *Wrapper {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracker == nil {
		o.tracker = NewTracker()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}

	t := &tree{
		user:    traps,
		traps:   Compose(traps),
		tracker: o.tracker,
		ctx:     o.ctx,
	}
	return newWrapper(target, t, o.path)
}

func newWrapper(target object.Object, t *tree, path []string) *Wrapper {
	if path == nil {
		path = []string{}
	}
	return &Wrapper{
		target: target,
		tree:   t,
		path:   path,
		cache:  newNestCache(),
	}
}

// Target returns the raw object behind w.
func (w *Wrapper) Target() object.Object {
	return w.target
}

// Path returns a copy of w's position relative to the root.
func (w *Wrapper) Path() []string {
	return clonePath(w.path)
}

// Traps returns the TrapSet the tree was created with.
func (w *Wrapper) Traps() TrapSet {
	return w.tree.user
}

// Tracker returns the tree's path tracker.
func (w *Wrapper) Tracker() *Tracker {
	return w.tree.tracker
}

// CacheLen returns the number of nested wrappers cached by w.
func (w *Wrapper) CacheLen() int {
	return w.cache.len()
}

func (w *Wrapper) String() string {
	return "shadow.Wrapper(" + strings.Join(w.path, ".") + ")"
}

// Unwrap returns the target of v if v is a *Wrapper, or v itself.
func Unwrap(v any) any {
	if w, ok := v.(*Wrapper); ok {
		return w.target
	}
	return v
}

// begin records the dispatch and evicts the cached wrapper of a value about to
// be replaced. The caller must always call end, even when begin fails.
func (w *Wrapper) begin(op Op, key string) (*Invocation, error) {
	path := clonePath(w.path)
	if op.HasKey() {
		path = append(path, key)
	}

	inv := &Invocation{
		Op:      op,
		Target:  w.target,
		Key:     key,
		path:    path,
		wrapper: w,
	}
	w.tree.tracker.enter(path)

	if op.MayErase() {
		old, err := w.target.Get(key)
		if err != nil {
			return nil, err
		}
		w.cache.evict(old)
	}
	return inv, nil
}

func (w *Wrapper) end() {
	w.tree.tracker.exit()
}

// Get dispatches a property read.
func (w *Wrapper) Get(key string) (any, error) {
	inv, err := w.begin(OpGet, key)
	defer w.end()
	if err != nil {
		return nil, err
	}
	return w.tree.traps.Get(inv, w.target, key)
}

// Set dispatches a property write.
func (w *Wrapper) Set(key string, value any) (bool, error) {
	inv, err := w.begin(OpSet, key)
	defer w.end()
	if err != nil {
		return false, err
	}
	return w.tree.traps.Set(inv, w.target, key, value)
}

// Has dispatches a property existence check.
func (w *Wrapper) Has(key string) (bool, error) {
	inv, err := w.begin(OpHas, key)
	defer w.end()
	if err != nil {
		return false, err
	}
	return w.tree.traps.Has(inv, w.target, key)
}

// Delete dispatches a property removal.
func (w *Wrapper) Delete(key string) (bool, error) {
	inv, err := w.begin(OpDeleteProperty, key)
	defer w.end()
	if err != nil {
		return false, err
	}
	return w.tree.traps.DeleteProperty(inv, w.target, key)
}

// DefineProperty dispatches a property definition.
func (w *Wrapper) DefineProperty(key string, desc object.Descriptor) (bool, error) {
	inv, err := w.begin(OpDefineProperty, key)
	defer w.end()
	if err != nil {
		return false, err
	}
	return w.tree.traps.DefineProperty(inv, w.target, key, desc)
}

// GetOwnPropertyDescriptor dispatches a property description.
func (w *Wrapper) GetOwnPropertyDescriptor(key string) (object.Descriptor, bool, error) {
	inv, err := w.begin(OpGetOwnPropertyDescriptor, key)
	defer w.end()
	if err != nil {
		return object.Descriptor{}, false, err
	}
	return w.tree.traps.GetOwnPropertyDescriptor(inv, w.target, key)
}

// OwnKeys dispatches a key enumeration.
func (w *Wrapper) OwnKeys() ([]string, error) {
	inv, err := w.begin(OpOwnKeys, "")
	defer w.end()
	if err != nil {
		return nil, err
	}
	return w.tree.traps.OwnKeys(inv, w.target)
}

// Call dispatches an invocation of the target.
func (w *Wrapper) Call(this any, args []any) (any, error) {
	inv, err := w.begin(OpApply, "")
	defer w.end()
	if err != nil {
		return nil, err
	}
	return w.tree.traps.Apply(inv, w.target, this, args)
}

// Construct dispatches a construction of the target.
func (w *Wrapper) Construct(args []any) (any, error) {
	inv, err := w.begin(OpConstruct, "")
	defer w.end()
	if err != nil {
		return nil, err
	}
	return w.tree.traps.Construct(inv, w.target, args)
}

var (
	_ object.Object      = (*Wrapper)(nil)
	_ object.Callable    = (*Wrapper)(nil)
	_ object.Constructor = (*Wrapper)(nil)
)
