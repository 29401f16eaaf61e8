package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"issueboard/internal/domain"
	"issueboard/internal/remote"
)

const remoteScopeName = "issueboard/remote"

// InstrumentedClient wraps remote.Client with OTel tracing and metrics.
// Use WrapClient to create one; it returns the original client unchanged when
// telemetry is disabled.
type InstrumentedClient struct {
	inner  remote.Client
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapClient returns c decorated with OTel instrumentation.
func WrapClient(c remote.Client) remote.Client {
	if !Enabled() {
		return c
	}
	m := Meter(remoteScopeName)
	ops, _ := m.Int64Counter("ib.remote.operations",
		metric.WithDescription("Total remote operations executed"),
	)
	dur, _ := m.Float64Histogram("ib.remote.operation.duration",
		metric.WithDescription("Remote operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("ib.remote.errors",
		metric.WithDescription("Total remote operation errors"),
	)
	return &InstrumentedClient{
		inner:  c,
		tracer: Tracer(remoteScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

func (c *InstrumentedClient) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("remote.operation", name)}, attrs...)
	ctx, span := c.tracer.Start(ctx, "remote."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	c.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

func (c *InstrumentedClient) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	c.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// FetchAll implements remote.Fetcher.
func (c *InstrumentedClient) FetchAll(ctx context.Context) ([]domain.Issue, error) {
	ctx, span, t := c.op(ctx, "FetchAll")
	issues, err := c.inner.FetchAll(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("ib.result.count", len(issues)))
	}
	c.done(ctx, span, t, err)
	return issues, err
}

// Update implements remote.Updater.
func (c *InstrumentedClient) Update(ctx context.Context, id string, patch domain.Patch) (domain.Issue, error) {
	attrs := []attribute.KeyValue{
		attribute.String("ib.issue.id", id),
		attribute.String("ib.patch", patch.String()),
	}
	ctx, span, t := c.op(ctx, "Update", attrs...)
	issue, err := c.inner.Update(ctx, id, patch)
	c.done(ctx, span, t, err, attrs...)
	return issue, err
}
