package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/conneroisu/tilde/pkg/tilde"
)

// MetricsRecorder records tilde metrics.
// Use NewMetricsRecorder for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordParse records loading a template with its duration and error
	// status.
	RecordParse(ctx context.Context, path string, duration time.Duration, err error)

	// RecordRender records one render with the bytes written.
	RecordRender(ctx context.Context, template string, bytes int64, duration time.Duration, err error)

	// ObserveCache reports the counters of cache on every collection.
	ObserveCache(cache *tilde.Cache) error
}

type otelMetrics struct {
	meter         metric.Meter
	parses        metric.Int64Counter
	parseLatency  metric.Float64Histogram
	parseErrors   metric.Int64Counter
	renders       metric.Int64Counter
	renderLatency metric.Float64Histogram
	renderErrors  metric.Int64Counter
	renderBytes   metric.Int64Histogram
}

// NewMetricsRecorder returns a MetricsRecorder using mp, or the global
// meter provider when mp is nil.
func NewMetricsRecorder(mp metric.MeterProvider) (MetricsRecorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(ScopeName)
	m := &otelMetrics{meter: meter}

	var err error
	if m.parses, err = meter.Int64Counter("tilde.parse.count",
		metric.WithDescription("Number of template loads that parsed source")); err != nil {
		return nil, err
	}
	if m.parseLatency, err = meter.Float64Histogram("tilde.parse.latency_ms",
		metric.WithDescription("Template parse latency in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.parseErrors, err = meter.Int64Counter("tilde.parse.errors",
		metric.WithDescription("Number of failed template loads")); err != nil {
		return nil, err
	}
	if m.renders, err = meter.Int64Counter("tilde.render.count",
		metric.WithDescription("Number of renders")); err != nil {
		return nil, err
	}
	if m.renderLatency, err = meter.Float64Histogram("tilde.render.latency_ms",
		metric.WithDescription("Render latency in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.renderErrors, err = meter.Int64Counter("tilde.render.errors",
		metric.WithDescription("Number of failed renders")); err != nil {
		return nil, err
	}
	if m.renderBytes, err = meter.Int64Histogram("tilde.render.size_bytes",
		metric.WithDescription("Rendered output size in bytes"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordParse(ctx context.Context, path string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("template.path", path))
	m.parses.Add(ctx, 1, attrs)
	m.parseLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.parseErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordRender(ctx context.Context, template string, bytes int64, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("template.name", template),
		attribute.Bool("success", err == nil),
	)
	m.renders.Add(ctx, 1, attrs)
	m.renderLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.renderBytes.Record(ctx, bytes, attrs)
	if err != nil {
		m.renderErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) ObserveCache(cache *tilde.Cache) error {
	size, err := m.meter.Int64ObservableGauge("tilde.cache.size",
		metric.WithDescription("Templates held by the cache"))
	if err != nil {
		return err
	}
	hits, err := m.meter.Int64ObservableCounter("tilde.cache.hits",
		metric.WithDescription("Cache lookups that found a template"))
	if err != nil {
		return err
	}
	misses, err := m.meter.Int64ObservableCounter("tilde.cache.misses",
		metric.WithDescription("Cache lookups that had to parse"))
	if err != nil {
		return err
	}
	evictions, err := m.meter.Int64ObservableCounter("tilde.cache.evictions",
		metric.WithDescription("Templates evicted to respect the capacity"))
	if err != nil {
		return err
	}
	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		st := cache.Stats()
		o.ObserveInt64(size, int64(st.Size))
		o.ObserveInt64(hits, st.Hits)
		o.ObserveInt64(misses, st.Misses)
		o.ObserveInt64(evictions, st.Evictions)
		return nil
	}, size, hits, misses, evictions)
	return err
}
