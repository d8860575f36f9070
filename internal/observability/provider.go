package observability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/conneroisu/tilde/internal/logging"
	"github.com/conneroisu/tilde/pkg/tilde"
)

// NewRunID returns a fresh identifier for one render run.
func NewRunID() string {
	return uuid.NewString()
}

// Provider owns the SDK tracer and meter providers used by the command
// line. Finished spans are written to the logger at debug level; metrics
// are held in memory until Snapshot collects them.
type Provider struct {
	Spans   SpanManager
	Metrics MetricsRecorder

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
}

// NewProvider builds a Provider logging spans through logger.
func NewProvider(logger logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(NewLogExporter(logger.WithComponent("trace"))),
	)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetricsRecorder(mp)
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(context.Background()), mp.Shutdown(context.Background()))
	}
	return &Provider{
		Spans:          NewSpanManager(tp),
		Metrics:        metrics,
		tracerProvider: tp,
		meterProvider:  mp,
		reader:         reader,
	}, nil
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(p.tracerProvider.Shutdown(ctx), p.meterProvider.Shutdown(ctx))
}

// MetricPoint is one collected data point.
type MetricPoint struct {
	Name       string            `json:"name" yaml:"name"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	// Value is the sum or gauge value; for histograms, the sum of samples.
	Value float64 `json:"value" yaml:"value"`
	// Count is the number of samples, for histograms only.
	Count uint64 `json:"count,omitempty" yaml:"count,omitempty"`
}

// Snapshot collects the current metrics, sorted by name.
func (p *Provider) Snapshot(ctx context.Context) ([]MetricPoint, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	var out []MetricPoint
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out = append(out, points(m)...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func points(m metricdata.Metrics) []MetricPoint {
	var out []MetricPoint
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes.ToSlice()), Value: float64(dp.Value)})
		}
	case metricdata.Gauge[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes.ToSlice()), Value: float64(dp.Value)})
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes.ToSlice()), Value: dp.Sum, Count: dp.Count})
		}
	case metricdata.Histogram[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes.ToSlice()), Value: float64(dp.Sum), Count: dp.Count})
		}
	}
	return out
}

// Instrumentor wraps template loads and renders in spans and metrics.
type Instrumentor struct {
	Spans   SpanManager
	Metrics MetricsRecorder
}

// NewInstrumentor returns an Instrumentor for p, or a no-op one when p is
// nil.
func NewInstrumentor(p *Provider) *Instrumentor {
	if p == nil {
		return &Instrumentor{Spans: NoopSpanManager{}, Metrics: NoopMetrics{}}
	}
	return &Instrumentor{Spans: p.Spans, Metrics: p.Metrics}
}

// Load runs load inside a parse span and records its outcome.
func (in *Instrumentor) Load(ctx context.Context, path string, load func() (*tilde.Template, error)) (*tilde.Template, error) {
	_, span := in.Spans.StartParseSpan(ctx, path)
	start := time.Now()
	t, err := load()
	in.Metrics.RecordParse(ctx, path, time.Since(start), err)
	in.Spans.EndSpanWithError(span, err)
	return t, err
}

// Render runs render inside a render span and records its outcome. render
// returns the number of bytes written.
func (in *Instrumentor) Render(ctx context.Context, template, runID string, render func(ctx context.Context) (int64, error)) error {
	ctx, span := in.Spans.StartRenderSpan(ctx, template, runID)
	start := time.Now()
	n, err := render(ctx)
	in.Metrics.RecordRender(ctx, template, n, time.Since(start), err)
	in.Spans.EndSpanWithError(span, err)
	return err
}
