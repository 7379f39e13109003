package bsapp

import (
	"context"
	"strings"

	"github.com/advdv/bserve"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// NewTracerProvider creates and configures the OpenTelemetry TracerProvider.
// Supported exporters via BS_OTEL_EXPORTER: "stdout" (default) and "none", which still records spans
// for log correlation but exports nothing. Shutdown is handled automatically via fx.Lifecycle.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(newResource(env.serviceName())),
	}

	exporter, err := newExporter(env.otelExporter())
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

// NewPropagator creates the W3C TraceContext + Baggage composite propagator.
func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// newExporter creates a span exporter based on the exporter type. It returns nil for "none".
func newExporter(exporterType string) (sdktrace.SpanExporter, error) {
	switch exporterType {
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		return nil, nil
	default:
		return nil, errors.Newf("unsupported BS_OTEL_EXPORTER: %q (supported: stdout, none)", exporterType)
	}
}

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
}

// withTracing returns a layer that continues the caller's trace from the request headers and runs the
// call inside a server span. Requests to excludePaths are not traced.
// The TracerProvider and Propagator are explicitly injected to avoid global state.
func withTracing(tp trace.TracerProvider, prop propagation.TextMapPropagator, excludePaths ...string) bserve.Layer {
	excludeSet := make(map[string]struct{}, len(excludePaths))
	for _, p := range excludePaths {
		excludeSet[p] = struct{}{}
	}

	tracing := bserve.NewTracingLayer(tp)

	return bserve.LayerFunc(func(inner bserve.Service) bserve.Service {
		return tracingService{
			Service: inner,
			traced:  tracing.Layer(inner),
			prop:    prop,
			exclude: excludeSet,
		}
	})
}

type tracingService struct {
	bserve.Service
	traced  bserve.Service
	prop    propagation.TextMapPropagator
	exclude map[string]struct{}
}

func (s tracingService) Call(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	if _, excluded := s.exclude[req.Path]; excluded {
		return s.Service.Call(ctx, req)
	}

	ctx = s.prop.Extract(ctx, headerCarrier(req.Headers))
	return s.traced.Call(ctx, req)
}

// headerCarrier adapts request headers to a TextMapCarrier. Header names arrive as the peer sent
// them, so lookups ignore case.
type headerCarrier map[string]string

func (c headerCarrier) Get(key string) string {
	if v, ok := c[key]; ok {
		return v
	}
	for k, v := range c {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) { c[key] = value }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
