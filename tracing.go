package bserve

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/advdv/bserve"

// NewTracingLayer returns a layer that runs every call inside a server span named "METHOD /path". The
// TracerProvider is injected explicitly to avoid global state.
func NewTracingLayer(tp trace.TracerProvider) Layer {
	tracer := tp.Tracer(tracerName)

	return LayerFunc(func(inner Service) Service {
		return tracingService{wrapped{inner}, tracer}
	})
}

type tracingService struct {
	wrapped
	tracer trace.Tracer
}

func (s tracingService) Call(ctx context.Context, req Request) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, string(req.Method)+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", string(req.Method)),
			attribute.String("url.path", req.Path),
			attribute.String("network.protocol.version", req.Version.String()),
		))
	defer span.End()

	resp, err := s.inner.Call(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", int(resp.Status)))
		if resp.Status >= StatusInternalServerError {
			span.SetStatus(codes.Error, resp.Status.Reason())
		}
	}

	return resp, nil
}
