package bsapp

import (
	"net/http"
	"sync/atomic"

	"github.com/advdv/bserve"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
)

// Routes gives access to the app's router after it has been built. The router is constructed from
// handlers that may themselves depend on the [Runtime], so the runtime resolves it lazily.
type Routes struct {
	router atomic.Pointer[bserve.Router]
}

// NewRoutes creates an empty route holder.
func NewRoutes() *Routes { return &Routes{} }

func (r *Routes) set(router bserve.Router) { r.router.Store(&router) }

// Reverse returns the path of a named route.
func (r *Routes) Reverse(name string, vals ...string) (string, error) {
	router := r.router.Load()
	if router == nil {
		return "", errors.New("bsapp: routes are not built yet")
	}
	return router.Reverse(name, vals...)
}

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt *bsapp.Runtime[Env]
//	}
//
//	func NewHandlers(rt *bsapp.Runtime[Env]) *Handlers {
//	    return &Handlers{rt: rt}
//	}
//
//	func (h *Handlers) GetItem(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
//	    env := h.rt.Env()
//	    url, _ := h.rt.Reverse("get-item", id)
//	    // ...
//	}
type Runtime[E Environment] struct {
	env       E
	routes    *Routes
	transport http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	Transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, routes *Routes, params RuntimeParams) *Runtime[E] {
	if params.Transport == nil {
		params.Transport = http.DefaultTransport
	}
	return &Runtime[E]{
		env:       env,
		routes:    routes,
		transport: params.Transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the path for a named route with the given parameters.
// The route must have been registered with a name.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.routes.Reverse(name, params...)
}

// NewRequest returns a request builder whose transport traces outbound calls and propagates the trace
// context of the ctx passed to Fetch.
func (r *Runtime[E]) NewRequest() *requests.Builder {
	return newRequestBuilder(r.transport)
}
