// Package bserve is a minimal HTTP/1.x server built around a uniform service abstraction.
//
// # Overview
//
// bserve accepts TCP connections, reads one request per connection, dispatches it through a chain of
// middleware to a pattern-matched handler and writes the handler's response back before closing the
// connection. Keep-alive, pipelining, chunked transfer-coding and TLS are not supported.
//
// A minimal example:
//
//	router := bserve.NewRouter().
//	    Get("/users/:id", func(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
//	        id, _ := req.Param("id")
//	        resp := bserve.NewResponse(bserve.StatusOK)
//	        resp.SetContentType("text/plain")
//	        resp.SetBody([]byte("user " + id))
//	        return resp, nil
//	    }, "get-user")
//
//	svc := bserve.NewBuilder(router).
//	    Layer(bserve.NewLogLayer(logs)).
//	    Layer(bserve.NewCORSLayer()).
//	    Build()
//
//	srv := bserve.NewServer(svc, bserve.NewStdLogger(nil), bserve.ServerConfig{})
//	err := srv.ListenAndServe(ctx, ":8080")
//
// # Services and Layers
//
// Every participant of the dispatch chain implements [Service]: a readiness probe and a call that turns
// one [Request] into one [Response]. Plain functions become services through [HandlerFunc].
//
// A [Layer] wraps one service into another. Layers compose in onion order: with [NewBuilder] or
// [Chain] the layer given first is the outermost one. It runs first on the way in and last on the way
// out.
//
// # Routing
//
// A [Router] holds an ordered list of routes. Patterns are made of literal segments, named parameters
// (":id") and a trailing wildcard ("*"). The first route whose method filter and pattern both match wins;
// registration order is part of the contract. Registering returns a new router, so the value that is
// handed to the server can no longer change.
//
// Named routes can be turned back into paths:
//
//	path, err := router.Reverse("get-user", "42") // "/users/42"
//
// # Connections
//
// [Server] handles every connection on its own goroutine. It reads until the end of the header block,
// bounded by [ServerConfig.ReadTimeout] and [ServerConfig.MaxRequestSize], and then:
//
//   - answers 400 when the bytes do not parse
//   - answers 503 when the service is not ready
//   - answers 500 when the service call fails or panics
//   - writes the service's response otherwise
//
// A peer that closes early or sends an oversized header block gets no response at all. Failures are
// reported to a [Logger] and never affect other connections.
package bserve
