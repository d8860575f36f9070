// Package observability traces and measures template parsing and
// rendering with OpenTelemetry.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of tilde's tracer and meter.
const ScopeName = "github.com/conneroisu/tilde"

// SpanManager handles trace span lifecycle.
// Use NewSpanManager for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRenderSpan starts a span for one render run of a template.
	StartRenderSpan(ctx context.Context, template, runID string) (context.Context, trace.Span)

	// StartParseSpan starts a span for loading and parsing a template.
	StartParseSpan(ctx context.Context, path string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager using tp, or the global tracer
// provider when tp is nil.
func NewSpanManager(tp trace.TracerProvider) SpanManager {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &otelSpanManager{tracer: tp.Tracer(ScopeName)}
}

func (m *otelSpanManager) StartRenderSpan(ctx context.Context, template, runID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "tilde.render",
		trace.WithAttributes(
			attribute.String("template.name", template),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartParseSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "tilde.parse",
		trace.WithAttributes(attribute.String("template.path", path)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
