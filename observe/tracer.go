package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/shadowcopy/shadow"
)

// DispatchMeta describes one trap dispatch for telemetry purposes.
type DispatchMeta struct {
	Op   shadow.Op
	Path []string // Root-relative path including Key for key-bearing ops
	Key  string   // Empty for ownKeys, apply and construct
}

// MetaOf builds the telemetry description of inv.
func MetaOf(inv *shadow.Invocation) DispatchMeta {
	return DispatchMeta{Op: inv.Op, Path: inv.Path(), Key: inv.Key}
}

// SpanName returns the deterministic span name for this dispatch.
// Format: shadow.<op>
func (m DispatchMeta) SpanName() string {
	return "shadow." + m.Op.String()
}

// PathString returns the path joined with dots.
func (m DispatchMeta) PathString() string {
	return strings.Join(m.Path, ".")
}

// Tracer wraps OpenTelemetry tracing with dispatch-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a dispatch.
	StartSpan(ctx context.Context, meta DispatchMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer over an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta DispatchMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("shadow.op", meta.Op.String()),
		attribute.String("shadow.path", meta.PathString()),
		attribute.Int("shadow.depth", len(meta.Path)),
		attribute.Bool("shadow.error", false),
	}
	if meta.Op.HasKey() {
		attrs = append(attrs, attribute.String("shadow.key", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("shadow.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta DispatchMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
