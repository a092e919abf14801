package observe

import (
	"time"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

// Middleware decorates trap sets with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: the returned TrapSet is as safe as the one it wraps.
//   - Context: spans are started from Invocation.Context.
//   - Errors: errors from the wrapped slot are recorded and propagated unchanged.
//   - Ownership: arguments and results are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap returns a TrapSet with every slot filled. Each slot runs the matching
// slot of traps, or the default behavior when it is empty, inside a span.
func (m *Middleware) Wrap(traps shadow.TrapSet) shadow.TrapSet {
	c := shadow.Compose(traps)

	return shadow.TrapSet{
		Get: func(inv *shadow.Invocation, target object.Object, key string) (any, error) {
			var out any
			err := m.observe(inv, nil, func() (err error) {
				out, err = c.Get(inv, target, key)
				return err
			})
			return out, err
		},
		Set: func(inv *shadow.Invocation, target object.Object, key string, value any) (bool, error) {
			var ok bool
			err := m.observe(inv, valueFields(key, value), func() (err error) {
				ok, err = c.Set(inv, target, key, value)
				return err
			})
			return ok, err
		},
		Has: func(inv *shadow.Invocation, target object.Object, key string) (bool, error) {
			var ok bool
			err := m.observe(inv, nil, func() (err error) {
				ok, err = c.Has(inv, target, key)
				return err
			})
			return ok, err
		},
		DeleteProperty: func(inv *shadow.Invocation, target object.Object, key string) (bool, error) {
			var ok bool
			err := m.observe(inv, nil, func() (err error) {
				ok, err = c.DeleteProperty(inv, target, key)
				return err
			})
			return ok, err
		},
		DefineProperty: func(inv *shadow.Invocation, target object.Object, key string, desc object.Descriptor) (bool, error) {
			var ok bool
			err := m.observe(inv, valueFields(key, desc.Value), func() (err error) {
				ok, err = c.DefineProperty(inv, target, key, desc)
				return err
			})
			return ok, err
		},
		GetOwnPropertyDescriptor: func(inv *shadow.Invocation, target object.Object, key string) (object.Descriptor, bool, error) {
			var (
				desc  object.Descriptor
				found bool
			)
			err := m.observe(inv, nil, func() (err error) {
				desc, found, err = c.GetOwnPropertyDescriptor(inv, target, key)
				return err
			})
			return desc, found, err
		},
		OwnKeys: func(inv *shadow.Invocation, target object.Object) ([]string, error) {
			var keys []string
			err := m.observe(inv, nil, func() (err error) {
				keys, err = c.OwnKeys(inv, target)
				return err
			})
			return keys, err
		},
		Apply: func(inv *shadow.Invocation, target object.Object, this any, args []any) (any, error) {
			var out any
			err := m.observe(inv, []Field{{Key: "args", Value: len(args)}}, func() (err error) {
				out, err = c.Apply(inv, target, this, args)
				return err
			})
			return out, err
		},
		Construct: func(inv *shadow.Invocation, target object.Object, args []any) (any, error) {
			var out any
			err := m.observe(inv, []Field{{Key: "args", Value: len(args)}}, func() (err error) {
				out, err = c.Construct(inv, target, args)
				return err
			})
			return out, err
		},
	}
}

func (m *Middleware) observe(inv *shadow.Invocation, fields []Field, fn func() error) error {
	meta := MetaOf(inv)
	ctx, span := m.tracer.StartSpan(inv.Context(), meta)

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	m.tracer.EndSpan(span, err)
	m.metrics.RecordDispatch(ctx, meta, duration, err)

	fields = append(fields,
		Field{Key: "shadow.op", Value: meta.Op.String()},
		Field{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
	)
	logger := m.logger.WithPath(meta.Path)
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Error(ctx, "dispatch failed", fields...)
	} else {
		logger.Debug(ctx, "dispatch completed", fields...)
	}
	return err
}

// valueFields describes a written value. Values stored under a sensitive
// property name are redacted.
func valueFields(key string, value any) []Field {
	switch {
	case isRedactedField(key):
		value = "[REDACTED]"
	case object.IsObject(value):
		value = "[object]"
	}
	return []Field{{Key: "value", Value: value}}
}
