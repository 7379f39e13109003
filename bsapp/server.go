package bsapp

import (
	"context"
	"net"
	"slices"
	"sync/atomic"

	"github.com/advdv/bserve"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig holds optional configuration for the server.
type ServerConfig struct {
	// HealthHandler answers requests to BS_HEALTH_PATH. Defaults to an empty 200 OK.
	HealthHandler bserve.HandlerFunc
	// Layers are applied inside the built-in layers, in onion order.
	Layers []bserve.Layer
}

// ServerParams holds the dependencies for creating the server.
type ServerParams struct {
	fx.In

	Env        Environment
	Router     bserve.Router
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator

	// Layers provided as a []bserve.Layer through fx run inside the configured ones.
	Layers []bserve.Layer `optional:"true"`
}

// NewServer creates the server with all layers and routing configured.
func NewServer(params ServerParams, cfg ServerConfig) *bserve.Server {
	healthPath := params.Env.healthPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}

	// the health route is tried first so no catch-all pattern can shadow it
	router := bserve.NewRouter().
		Get(healthPath, healthHandler).
		NotFound(params.Router)

	svc := bserve.NewBuilder(router).
		Layer(withTracing(params.TracerProv, params.Propagator, healthPath)).
		Layer(bserve.NewLogLayer(params.Logger.Named("bserve").Named("request"))).
		Layer(bserve.NewRecoverLayer()).
		Layer(withRequestDep(&requestDep{logger: params.Logger})).
		Layer(bserve.NewCORSLayer(bserve.WithAllowOrigin(params.Env.corsAllowOrigin())))

	for _, l := range slices.Concat(cfg.Layers, params.Layers) {
		svc = svc.Layer(l)
	}

	return bserve.NewServer(svc.Build(), newZapServerLogger(params.Logger), params.Env.serverConfig())
}

// Endpoint reports where the server listens once the app has started.
type Endpoint struct {
	addr atomic.Pointer[string]
}

// NewEndpoint creates an endpoint that is filled in when the server starts listening.
func NewEndpoint() *Endpoint { return &Endpoint{} }

// Addr returns the listen address, or an empty string before the app started.
func (e *Endpoint) Addr() string {
	if p := e.addr.Load(); p != nil {
		return *p
	}
	return ""
}

// URL returns the http URL of path on the listen address.
func (e *Endpoint) URL(path string) string {
	return "http://" + e.Addr() + path
}

// startServerHook registers lifecycle hooks for the server.
func startServerHook(lc fx.Lifecycle, server *bserve.Server, env Environment, ep *Endpoint, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", env.addr())
			if err != nil {
				return errors.Wrapf(err, "failed to listen on %s", env.addr())
			}

			addr := ln.Addr().String()
			ep.addr.Store(&addr)

			logger.Info("starting server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(context.Background(), ln); err != nil && !errors.Is(err, bserve.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(context.Context, bserve.Request) (*bserve.Response, error) {
	return bserve.NewResponse(bserve.StatusOK), nil
}
