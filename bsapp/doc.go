// Package bsapp provides a batteries-included framework for running a bserve server.
//
// # Overview
//
// bsapp handles the boilerplate around a [bserve.Server]: environment parsing, structured logging,
// OpenTelemetry tracing, dependency injection and graceful shutdown. A complete application can be
// created in a single call:
//
//	bsapp.NewApp[Env](func(h *Handlers) bserve.Router {
//	    return bserve.NewRouter().
//	        Get("/items", h.ListItems).
//	        Get("/items/:id", h.GetItem, "get-item")
//	},
//	    bsapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bsapp.BaseEnvironment
//	    Greeting string `env:"GREETING" envDefault:"hello"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable              | Required | Default | Description                                 |
//	|-----------------------|----------|---------|---------------------------------------------|
//	| BS_SERVICE_NAME       | Yes      | -       | Service name for logging and tracing        |
//	| BS_ADDR               | No       | :8080   | TCP address the server listens on           |
//	| BS_HEALTH_PATH        | No       | /health | Path answered by the health handler         |
//	| BS_LOG_LEVEL          | No       | info    | Log level (debug, info, warn, error)        |
//	| BS_OTEL_EXPORTER      | No       | stdout  | Trace exporter: "stdout" or "none"          |
//	| BS_CORS_ALLOW_ORIGIN  | No       | *       | Access-Control-Allow-Origin of responses    |
//	| BS_READ_TIMEOUT       | No       | 30s     | Deadline for receiving the header block     |
//	| BS_WRITE_TIMEOUT      | No       | 30s     | Deadline for writing the response           |
//	| BS_READ_CHUNK_SIZE    | No       | 4096    | Bytes per read from a connection            |
//	| BS_MAX_REQUEST_SIZE   | No       | 1048576 | Cap on bytes buffered before end of headers |
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into handler
// constructors via fx:
//   - [Runtime.Env] returns the typed environment configuration
//   - [Runtime.Reverse] generates paths for named routes
//   - [Runtime.NewRequest] starts an outbound request that continues the current trace
//
// # Request Context
//
// Handlers get request-scoped helpers from their context: [Log] returns a logger annotated with the
// trace, span and request id, [Span] returns the active server span and [RequestID] the id that is
// echoed in the X-Request-Id response header.
//
// # Layers
//
// Every request passes, from the outside in, through tracing, request logging, panic recovery, the
// request context and CORS before it reaches the router. [WithLayers] adds application layers inside
// those. The health path is answered before the application's routes and is not traced.
package bsapp
