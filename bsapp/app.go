package bsapp

import (
	"context"

	"github.com/advdv/bserve"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 OK is used.
func WithHealthHandler(h bserve.HandlerFunc) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// WithLayers adds layers around the router, inside the built-in tracing, logging, recovery and CORS
// layers. Layers given first are outermost.
func WithLayers(layers ...bserve.Layer) Option {
	return func(c *AppConfig) {
		c.Layers = append(c.Layers, layers...)
	}
}

// runtimeProviderParams holds dependencies for Runtime.
type runtimeProviderParams[E Environment] struct {
	fx.In

	Env        E
	Routes     *Routes
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function builds the app's router and can request any types that are provided via fx
// options. It must return a [bserve.Router].
//
// Example:
//
//	bsapp.NewApp[Env](func(h *Handlers) bserve.Router {
//	    return bserve.NewRouter().
//	        Get("/items/:id", h.GetItem, "get-item")
//	},
//	    bsapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](routing, opts...)...),
	}
}

// FxOptions returns the fx options that make up the app's dependency graph. [NewApp] and the test
// helpers build their app from it.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 14+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewRoutes),
		fx.Provide(NewEndpoint),
		fx.Provide(routing),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Provide(func(p runtimeProviderParams[E]) *Runtime[E] {
			return NewRuntime(p.Env, p.Routes, RuntimeParams{
				Transport: NewHTTPTransport(p.TracerProv, p.Propagator),
			})
		}),
		fx.Invoke(func(routes *Routes, router bserve.Router) { routes.set(router) }),
		fx.Invoke(startServerHook),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application and blocks until ctx is done, then stops it.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
