package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const httpScopeName = "github.com/steveyegge/jps/http"

// Doer sends one HTTP request. It matches jira.Doer and *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// InstrumentedDoer wraps a Doer with OTel tracing and metrics.
// Every request gets a client span and is counted in jps.http.* metrics.
type InstrumentedDoer struct {
	inner  Doer
	tracer trace.Tracer
	reqs   metric.Int64Counter
	errs   metric.Int64Counter
	dur    metric.Float64Histogram
}

// WrapDoer returns d decorated with OTel instrumentation from the global
// providers. When telemetry is disabled, d is returned as-is.
func WrapDoer(d Doer) Doer {
	if !Enabled() {
		return d
	}
	return NewInstrumentedDoer(d, Tracer(httpScopeName), Meter(httpScopeName))
}

// NewInstrumentedDoer wraps d using the given tracer and meter.
func NewInstrumentedDoer(d Doer, tracer trace.Tracer, m metric.Meter) *InstrumentedDoer {
	reqs, _ := m.Int64Counter("jps.http.requests",
		metric.WithDescription("Total HTTP requests sent to remote APIs"),
	)
	errs, _ := m.Int64Counter("jps.http.errors",
		metric.WithDescription("HTTP requests that failed or returned a non-2xx status"),
	)
	dur, _ := m.Float64Histogram("jps.http.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &InstrumentedDoer{inner: d, tracer: tracer, reqs: reqs, errs: errs, dur: dur}
}

// Do sends req and records its outcome.
func (d *InstrumentedDoer) Do(req *http.Request) (*http.Response, error) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method),
		attribute.String("server.address", req.URL.Host),
	}
	ctx, span := d.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithAttributes(append(attrs, attribute.String("url.path", req.URL.Path))...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	d.reqs.Add(ctx, 1, metric.WithAttributes(attrs...))
	start := time.Now()
	resp, err := d.inner.Do(req.WithContext(ctx))
	ms := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
		d.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
		return nil, err
	}

	status := attribute.Int("http.response.status_code", resp.StatusCode)
	span.SetAttributes(status)
	d.dur.Record(ctx, ms, metric.WithAttributes(append(attrs, status)...))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
		d.errs.Add(ctx, 1, metric.WithAttributes(append(attrs, status)...))
	}
	return resp, nil
}
