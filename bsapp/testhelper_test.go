package bsapp_test

import (
	"context"
	"encoding/json"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/bsapp"
	"github.com/cockroachdb/errors"
)

// TestEnv is a test environment with app-specific fields beyond BaseEnvironment.
type TestEnv struct {
	bsapp.BaseEnvironment
	Greeting string `env:"GREETING" envDefault:"hello"`
}

// Handlers demonstrates injection of the runtime and the endpoint.
type Handlers struct {
	rt *bsapp.Runtime[TestEnv]
	ep *bsapp.Endpoint
}

func NewHandlers(rt *bsapp.Runtime[TestEnv], ep *bsapp.Endpoint) *Handlers {
	return &Handlers{rt: rt, ep: ep}
}

func routing(h *Handlers) bserve.Router {
	return bserve.NewRouter().
		Get("/context", h.Context).
		Get("/items/:id", h.GetItem, "get-item").
		Post("/items", h.CreateItem).
		Get("/proxy", h.Proxy).
		Get("/trace", h.Trace).
		Get("/panic", func(context.Context, bserve.Request) (*bserve.Response, error) {
			panic("handler panicked")
		})
}

func jsonResponse(status bserve.StatusCode, v any) (*bserve.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode JSON")
	}

	resp := bserve.NewResponse(status)
	resp.SetContentType("application/json")
	resp.SetBody(body)
	return resp, nil
}

func (h *Handlers) Context(ctx context.Context, _ bserve.Request) (*bserve.Response, error) {
	env := h.rt.Env()

	itemURL, err := h.rt.Reverse("get-item", "test-123")
	if err != nil {
		return nil, err
	}

	bsapp.Span(ctx).AddEvent("context-test")
	bsapp.Log(ctx).Info("testing context features")

	return jsonResponse(bserve.StatusOK, map[string]any{
		"greeting":     env.Greeting,
		"service_name": env.ServiceName,
		"span_valid":   bsapp.Span(ctx).SpanContext().IsValid(),
		"reversed_url": itemURL,
	})
}

func (h *Handlers) GetItem(_ context.Context, req bserve.Request) (*bserve.Response, error) {
	id, _ := req.Param("id")
	self, err := h.rt.Reverse("get-item", id)
	if err != nil {
		return nil, err
	}

	return jsonResponse(bserve.StatusOK, map[string]any{"id": id, "self_url": self})
}

func (h *Handlers) CreateItem(_ context.Context, req bserve.Request) (*bserve.Response, error) {
	body, err := bserve.DecodeJSON[map[string]any](req)
	if err != nil {
		return nil, err
	}

	return jsonResponse(bserve.StatusCreated, map[string]any{"id": "item-123", "data": body})
}

// Trace reports the trace the call runs in.
func (h *Handlers) Trace(ctx context.Context, _ bserve.Request) (*bserve.Response, error) {
	resp := bserve.NewResponse(bserve.StatusOK)
	resp.SetBody([]byte(bsapp.Span(ctx).SpanContext().TraceID().String()))
	return resp, nil
}

// Proxy calls /trace on its own server and returns both trace ids.
func (h *Handlers) Proxy(ctx context.Context, _ bserve.Request) (*bserve.Response, error) {
	var upstream string
	if err := h.rt.NewRequest().
		BaseURL(h.ep.URL("/trace")).
		ToString(&upstream).
		Fetch(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to call upstream")
	}

	return jsonResponse(bserve.StatusOK, map[string]string{
		"own":      bsapp.Span(ctx).SpanContext().TraceID().String(),
		"upstream": upstream,
	})
}
