package bserve

import (
	"context"
)

// Service is the contract shared by every participant of the dispatch chain: leaf handlers, the
// [Router] and every middleware. PollReady must succeed before Call is invoked; it returns
// [ErrNotReady] (or any other error) when the service cannot take a call. Call processes exactly one
// request.
type Service interface {
	PollReady(ctx context.Context) error
	Call(ctx context.Context, req Request) (*Response, error)
}

// HandlerFunc allows casting a function to implement [Service]. It is always ready.
type HandlerFunc func(ctx context.Context, req Request) (*Response, error)

// PollReady implements the [Service] interface.
func (f HandlerFunc) PollReady(context.Context) error { return nil }

// Call implements the [Service] interface.
func (f HandlerFunc) Call(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Layer wraps a service to produce a new service around it.
type Layer interface {
	Layer(inner Service) Service
}

// LayerFunc allows casting a function to implement [Layer].
type LayerFunc func(inner Service) Service

// Layer implements the [Layer] interface.
func (f LayerFunc) Layer(inner Service) Service { return f(inner) }

// Chain takes the inner service s and wraps it with layers. The order is that of the Gorilla and Chi router. That
// is: the layer provided first is called first and is the "outer" most wrapping, the layer provided last
// will be the "inner most" wrapping (closest to s).
func Chain(s Service, layers ...Layer) Service {
	wrapped := s
	for i := len(layers) - 1; i >= 0; i-- {
		wrapped = layers[i].Layer(wrapped)
	}

	return wrapped
}

// Builder composes layers around a base service. Layers added first end up outermost.
//
//	svc := bserve.NewBuilder(router).
//	    Layer(bserve.NewLogLayer(logs)).
//	    Layer(bserve.NewCORSLayer()).
//	    Build()
//
// On a request the log layer runs first, then CORS, then the router; on the way out CORS adds its
// headers before the log layer sees the outcome.
type Builder struct {
	base   Service
	layers []Layer
}

// NewBuilder starts a builder around the base service.
func NewBuilder(base Service) Builder {
	return Builder{base: base}
}

// Layer returns a builder with l added inside all previously added layers.
func (b Builder) Layer(l Layer) Builder {
	layers := make([]Layer, len(b.layers), len(b.layers)+1)
	copy(layers, b.layers)
	b.layers = append(layers, l)
	return b
}

// Build wraps the base service and returns the outermost service.
func (b Builder) Build() Service {
	return Chain(b.base, b.layers...)
}
