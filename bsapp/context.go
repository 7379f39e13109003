package bsapp

import (
	"context"

	"github.com/advdv/bserve"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ctxKey is the key type for context values.
type ctxKey int

const (
	ctxKeyRequestDep ctxKey = iota
	ctxKeyRequestID
)

// RequestIDHeader carries the request id in both directions. An incoming value is kept, otherwise a
// new one is generated.
const RequestIDHeader = "X-Request-Id"

// requestDep holds request-scoped dependencies available via context.
// App-scoped dependencies (env, routes, transport) are accessed via Runtime instead.
type requestDep struct {
	logger *zap.Logger
}

// withRequestDep injects dependencies into the call context.
func withRequestDep(d *requestDep) bserve.Layer {
	return bserve.LayerFunc(func(inner bserve.Service) bserve.Service {
		return requestDepService{inner, d}
	})
}

type requestDepService struct {
	bserve.Service
	dep *requestDep
}

func (s requestDepService) Call(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	id := headerCarrier(req.Headers).Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	ctx = context.WithValue(ctx, ctxKeyRequestDep, s.dep)
	ctx = context.WithValue(ctx, ctxKeyRequestID, id)

	resp, err := s.Service.Call(ctx, req)
	if resp != nil {
		resp.SetHeader(RequestIDHeader, id)
	}
	return resp, err
}

func requestDepFromContext(ctx context.Context) *requestDep {
	d, ok := ctx.Value(ctxKeyRequestDep).(*requestDep)
	if !ok {
		panic("bsapp: requestDep not found in context; is the layer configured?")
	}
	return d
}

// Log returns a trace-correlated zap logger from the context.
func Log(ctx context.Context) *zap.Logger {
	d := requestDepFromContext(ctx)
	fields := traceFields(ctx)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return d.logger.With(fields...)
}

// RequestID returns the id of the request being served, or an empty string outside a call.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Span returns the current trace span from the context.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
