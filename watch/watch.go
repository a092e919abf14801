// Package watch reports mutations made through shadow wrappers.
package watch

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

// Change is one applied mutation.
type Change struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Op   shadow.Op `json:"op"`
	Path []string  `json:"path"`
	Old  any       `json:"old"`
	New  any       `json:"new"`
	At   time.Time `json:"at"`
}

// Handler receives changes synchronously, on the goroutine that made them.
type Handler func(Change)

type options struct {
	now     func() time.Time
	newID   func() string
	wrapper []shadow.Option
}

// Option configures a watcher.
type Option func(*options)

// WithClock sets the clock used for Change.At.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator sets the generator used for Change.ID.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

// WithWrapperOptions passes options through to shadow.New.
func WithWrapperOptions(opts ...shadow.Option) Option {
	return func(o *options) {
		o.wrapper = append(o.wrapper, opts...)
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, newID: newID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// New wraps target so that every mutation anywhere in the tree is reported to
// handler under name.
func New(target object.Object, name string, handler Handler, opts ...Option) *shadow.Wrapper {
	o := newOptions(opts)
	return shadow.New(target, chain(shadow.TrapSet{}, name, handler, o), o.wrapper...)
}

// Traps returns the watching trap set without wrapping anything.
func Traps(name string, handler Handler, opts ...Option) shadow.TrapSet {
	return Chain(shadow.TrapSet{}, name, handler, opts...)
}

// Chain returns next with change reporting around its set, deleteProperty and
// defineProperty slots. A change is reported only when the slot accepted it.
func Chain(next shadow.TrapSet, name string, handler Handler, opts ...Option) shadow.TrapSet {
	return chain(next, name, handler, newOptions(opts))
}

func chain(next shadow.TrapSet, name string, handler Handler, o options) shadow.TrapSet {
	c := shadow.Compose(next)
	out := next

	report := func(inv *shadow.Invocation, old, value any) {
		if handler == nil {
			return
		}
		handler(Change{
			ID:   o.newID(),
			Name: name,
			Op:   inv.Op,
			Path: inv.Path(),
			Old:  old,
			New:  value,
			At:   o.now(),
		})
	}

	out.Set = func(inv *shadow.Invocation, target object.Object, key string, value any) (bool, error) {
		old, err := target.Get(key)
		if err != nil {
			return false, err
		}
		ok, err := c.Set(inv, target, key, value)
		if ok && err == nil {
			report(inv, old, value)
		}
		return ok, err
	}
	out.DeleteProperty = func(inv *shadow.Invocation, target object.Object, key string) (bool, error) {
		old, err := target.Get(key)
		if err != nil {
			return false, err
		}
		ok, err := c.DeleteProperty(inv, target, key)
		if ok && err == nil {
			report(inv, old, nil)
		}
		return ok, err
	}
	out.DefineProperty = func(inv *shadow.Invocation, target object.Object, key string, desc object.Descriptor) (bool, error) {
		old, err := target.Get(key)
		if err != nil {
			return false, err
		}
		ok, err := c.DefineProperty(inv, target, key, desc)
		if ok && err == nil {
			report(inv, old, desc.Value)
		}
		return ok, err
	}
	return out
}

// Recorder collects changes. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

// Handle records c. It has the Handler signature.
func (r *Recorder) Handle(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

// Changes returns a copy of the recorded changes in order.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.changes)
}

// Reset discards every recorded change.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = nil
}
