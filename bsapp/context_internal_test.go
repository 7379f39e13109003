package bsapp

import (
	"context"
	"testing"

	"github.com/advdv/bserve"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogWithoutLayerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Log to panic without the request dep layer")
		}
	}()

	Log(context.Background())
}

func TestLogWithTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var spanID string
	svc := bserve.NewBuilder(bserve.HandlerFunc(func(ctx context.Context, _ bserve.Request) (*bserve.Response, error) {
		spanID = Span(ctx).SpanContext().SpanID().String()
		Log(ctx).Info("inside")
		return bserve.NewResponse(bserve.StatusOK), nil
	})).
		Layer(bserve.NewTracingLayer(tp)).
		Layer(withRequestDep(&requestDep{logger: zap.New(core)})).
		Build()

	if _, err := svc.Call(context.Background(), bserve.Request{Method: bserve.MethodGet, Path: "/"}); err != nil {
		t.Fatalf("Call error: %v", err)
	}

	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["span_id"] != spanID {
		t.Errorf("expected span_id %s, got %v", spanID, fields["span_id"])
	}
	if fields["trace_id"] == nil {
		t.Error("expected trace_id field")
	}
}

func TestLogWithoutSpan(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := bserve.Chain(bserve.HandlerFunc(func(ctx context.Context, _ bserve.Request) (*bserve.Response, error) {
		Log(ctx).Info("inside")
		return bserve.NewResponse(bserve.StatusOK), nil
	}), withRequestDep(&requestDep{logger: zap.New(core)}))

	if _, err := svc.Call(context.Background(), bserve.Request{}); err != nil {
		t.Fatalf("Call error: %v", err)
	}

	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if _, ok := fields["trace_id"]; ok {
		t.Errorf("expected no trace fields, got %v", fields)
	}
	if fields["request_id"] == nil {
		t.Error("expected request_id field")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	svc := bserve.Chain(bserve.HandlerFunc(func(ctx context.Context, _ bserve.Request) (*bserve.Response, error) {
		seen = RequestID(ctx)
		return bserve.NewResponse(bserve.StatusOK), nil
	}), withRequestDep(&requestDep{logger: zap.NewNop()}))

	t.Run("generated", func(t *testing.T) {
		resp, err := svc.Call(context.Background(), bserve.Request{Method: bserve.MethodGet, Path: "/"})
		require.NoError(t, err)

		_, err = uuid.Parse(seen)
		require.NoError(t, err)

		got, ok := resp.Header(RequestIDHeader)
		require.True(t, ok)
		assert.Equal(t, seen, got)
	})

	t.Run("from header", func(t *testing.T) {
		req := bserve.Request{Method: bserve.MethodGet, Path: "/", Headers: map[string]string{"x-request-id": "abc-123"}}
		resp, err := svc.Call(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, "abc-123", seen)
		got, _ := resp.Header(RequestIDHeader)
		assert.Equal(t, "abc-123", got)
	})

	t.Run("outside a call", func(t *testing.T) {
		assert.Empty(t, RequestID(context.Background()))
	})
}
