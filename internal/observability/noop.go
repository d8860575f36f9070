package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/conneroisu/tilde/pkg/tilde"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordParse does nothing.
func (NoopMetrics) RecordParse(context.Context, string, time.Duration, error) {}

// RecordRender does nothing.
func (NoopMetrics) RecordRender(context.Context, string, int64, time.Duration, error) {}

// ObserveCache does nothing.
func (NoopMetrics) ObserveCache(*tilde.Cache) error { return nil }

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartRenderSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRenderSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartParseSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartParseSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
