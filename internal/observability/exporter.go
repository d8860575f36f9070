package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/conneroisu/tilde/internal/logging"
)

// LogExporter writes finished spans to a logger at debug level.
type LogExporter struct {
	logger logging.Logger
}

var _ sdktrace.SpanExporter = (*LogExporter)(nil)

// NewLogExporter returns an exporter writing to logger.
func NewLogExporter(logger logging.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := []any{
			"span", s.Name(),
			"trace_id", s.SpanContext().TraceID().String(),
			"duration", s.EndTime().Sub(s.StartTime()),
		}
		for k, v := range attrMap(s.Attributes()) {
			fields = append(fields, k, v)
		}
		if s.Status().Code == codes.Error {
			fields = append(fields, "status", "error", "status_message", s.Status().Description)
		}
		e.logger.Debug(ctx, "span finished", fields...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}
