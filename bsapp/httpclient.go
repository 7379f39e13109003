package bsapp

import (
	"net/http"

	"github.com/carlmjohnson/requests"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// NewHTTPTransport returns the RoundTripper behind [Runtime.NewRequest]. Every outbound request gets a
// client span, the trace context of the request's ctx and, when that ctx belongs to a served call, the
// call's request id.
func NewHTTPTransport(tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
	return otelhttp.NewTransport(requestIDTransport{http.DefaultTransport},
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(prop),
	)
}

// requestIDTransport forwards the id of the served call as X-Request-Id unless the request sets one.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := RequestID(req.Context())
	if id == "" || req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, id)
	return t.base.RoundTrip(req)
}

func newRequestBuilder(t http.RoundTripper) *requests.Builder {
	return requests.New().Transport(t)
}
