package bserve

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// wrapped is embedded by middleware services to forward the readiness probe to the inner service.
type wrapped struct{ inner Service }

func (w wrapped) PollReady(ctx context.Context) error { return w.inner.PollReady(ctx) }

// NewLogLayer returns a layer that logs every request before delegating and logs the outcome after the
// inner service returns.
func NewLogLayer(logs *zap.Logger) Layer {
	return LayerFunc(func(inner Service) Service {
		return logService{wrapped{inner}, logs}
	})
}

type logService struct {
	wrapped
	logs *zap.Logger
}

func (s logService) Call(ctx context.Context, req Request) (*Response, error) {
	s.logs.Info("request", zap.String("method", string(req.Method)), zap.String("path", req.Path))

	resp, err := s.inner.Call(ctx, req)
	if err != nil {
		s.logs.Error("request failed", zap.String("path", req.Path), zap.Error(err))
		return resp, err
	}

	if resp != nil {
		s.logs.Info("response", zap.String("path", req.Path), zap.Int("status", int(resp.Status)))
	}
	return resp, nil
}

// CORSOption configures the CORS layer.
type CORSOption func(*corsConfig)

type corsConfig struct {
	origin  string
	methods []Method
	headers []string
}

// WithAllowOrigin sets Access-Control-Allow-Origin.
func WithAllowOrigin(origin string) CORSOption {
	return func(c *corsConfig) { c.origin = origin }
}

// WithAllowMethods sets Access-Control-Allow-Methods.
func WithAllowMethods(methods ...Method) CORSOption {
	return func(c *corsConfig) { c.methods = methods }
}

// WithAllowHeaders sets Access-Control-Allow-Headers.
func WithAllowHeaders(headers ...string) CORSOption {
	return func(c *corsConfig) { c.headers = headers }
}

// NewCORSLayer returns a layer that adds CORS headers to every successful response. Errors from the inner
// service pass through untouched. By default any origin is allowed.
func NewCORSLayer(opts ...CORSOption) Layer {
	cfg := corsConfig{
		origin:  "*",
		methods: []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodOptions},
		headers: []string{"Content-Type", "Authorization"},
	}
	for _, o := range opts {
		o(&cfg)
	}

	methods := strings.Join(lo.Map(cfg.methods, func(m Method, _ int) string { return string(m) }), ", ")
	headers := strings.Join(cfg.headers, ", ")

	return LayerFunc(func(inner Service) Service {
		return corsService{wrapped{inner}, cfg.origin, methods, headers}
	})
}

type corsService struct {
	wrapped
	origin, methods, headers string
}

func (s corsService) Call(ctx context.Context, req Request) (*Response, error) {
	resp, err := s.inner.Call(ctx, req)
	if err != nil || resp == nil {
		return resp, err
	}

	resp.SetHeader("Access-Control-Allow-Origin", s.origin)
	resp.SetHeader("Access-Control-Allow-Methods", s.methods)
	resp.SetHeader("Access-Control-Allow-Headers", s.headers)

	return resp, nil
}

// NewRecoverLayer returns a layer that turns a panic in the inner service into an error.
func NewRecoverLayer() Layer {
	return LayerFunc(func(inner Service) Service {
		return recoverService{wrapped{inner}}
	})
}

type recoverService struct{ wrapped }

func (s recoverService) Call(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			resp, err = nil, errors.Newf("recovered: %v", e)
		}
	}()

	return s.inner.Call(ctx, req)
}
