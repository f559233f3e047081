package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rfq-workers/orchestrator"

// Tracing owns a tracer provider exporting spans.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewJaegerTracing exports spans to a Jaeger collector endpoint such as
// http://jaeger:14268/api/traces and installs the provider globally.
func NewJaegerTracing(serviceName, endpoint string) (*Tracing, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", serviceName),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return NewTracingFromProvider(tp), nil
}

// NewTracingFromProvider wraps an existing provider.
func NewTracingFromProvider(tp *sdktrace.TracerProvider) *Tracing {
	return &Tracing{provider: tp, tracer: tp.Tracer(tracerName)}
}

func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// EnableTracing attaches t so StartSpan records through it.
func (o *Observability) EnableTracing(t *Tracing) {
	if o != nil {
		o.tracing = t
	}
}

// StartSpan starts a span on the configured tracer, or on the global tracer when
// tracing is not enabled.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	var tracer trace.Tracer
	if o != nil && o.tracing != nil {
		tracer = o.tracing.tracer
	} else {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
