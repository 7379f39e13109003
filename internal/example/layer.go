// Package example implements the demo application served by cmd/bserve.
package example

import (
	"context"

	"github.com/advdv/bserve"
	"go.uber.org/zap"
)

// ctxKey type scopes layer values.
type ctxKey string

// Layer provides an example for a layer outside the bserve packages that adds a logger to the
// context. Readiness is the inner service's.
func Layer(logs *zap.Logger) bserve.Layer {
	return bserve.LayerFunc(func(inner bserve.Service) bserve.Service {
		return logService{inner, logs}
	})
}

type logService struct {
	bserve.Service
	logs *zap.Logger
}

func (s logService) Call(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	logs := s.logs.With(zap.String("method", string(req.Method)))
	return s.Service.Call(context.WithValue(ctx, ctxKey("zap"), logs), req)
}

// Log returns the logger added by [Layer], or a no-op logger.
func Log(ctx context.Context) *zap.Logger {
	v, ok := ctx.Value(ctxKey("zap")).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}

	return v
}
