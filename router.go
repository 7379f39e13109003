package bserve

import (
	"context"
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// NotFoundBody is the body of the router's default not-found response.
const NotFoundBody = `<html><body><h1>404 - Not Found</h1><p>The page you're looking for doesn't exist.</p></body></html>`

type route struct {
	pattern Pattern
	method  Method // empty matches any method
	handler Service
}

// Router dispatches requests to the first registered route whose method filter and pattern match. It
// implements [Service]. Registration methods return a new Router and never modify the receiver, so a
// router can be shared freely once the server starts.
type Router struct {
	routes   []route
	names    map[string]int
	notFound Service
}

// NewRouter creates an empty router that answers every request with the default not-found response.
func NewRouter() Router {
	return Router{notFound: HandlerFunc(defaultNotFound)}
}

// Route registers handler for pattern. An empty method matches any method. The optional name allows
// reversing the route with [Router.Reverse]. It panics when the pattern does not compile or the name is
// already taken.
func (rt Router) Route(method Method, pattern string, handler Service, name ...string) Router {
	pat := MustCompilePattern(pattern)

	if len(name) > 0 {
		if _, exists := rt.names[name[0]]; exists {
			panic(fmt.Sprintf("bserve: route with name %q already exists", name[0]))
		}
		rt.names = lo.Assign(rt.names, map[string]int{name[0]: len(rt.routes)})
	}

	rt.routes = append(slices.Clip(rt.routes), route{pattern: pat, method: method, handler: handler})
	return rt
}

// Any registers a handler function for pattern regardless of method.
func (rt Router) Any(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route("", pattern, handler, name...)
}

// Get registers a GET handler function.
func (rt Router) Get(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodGet, pattern, handler, name...)
}

// Post registers a POST handler function.
func (rt Router) Post(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodPost, pattern, handler, name...)
}

// Put registers a PUT handler function.
func (rt Router) Put(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodPut, pattern, handler, name...)
}

// Delete registers a DELETE handler function.
func (rt Router) Delete(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodDelete, pattern, handler, name...)
}

// Patch registers a PATCH handler function.
func (rt Router) Patch(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodPatch, pattern, handler, name...)
}

// Head registers a HEAD handler function.
func (rt Router) Head(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodHead, pattern, handler, name...)
}

// Options registers an OPTIONS handler function.
func (rt Router) Options(pattern string, handler HandlerFunc, name ...string) Router {
	return rt.Route(MethodOptions, pattern, handler, name...)
}

// NotFound returns a router that calls handler when no route matches.
func (rt Router) NotFound(handler Service) Router {
	rt.notFound = handler
	return rt
}

// Len returns the number of registered routes.
func (rt Router) Len() int { return len(rt.routes) }

// PollReady implements [Service]. The router itself is always ready.
func (rt Router) PollReady(context.Context) error { return nil }

// Call implements [Service]. Routes are tried in registration order; the method filter is checked before the
// pattern. The first match gets a copy of the request whose Params hold exactly the captured parameters,
// and its result is returned as is. Unmatched requests go to the not-found handler unmodified.
func (rt Router) Call(ctx context.Context, req Request) (*Response, error) {
	for _, r := range rt.routes {
		if r.method != "" && r.method != req.Method {
			continue
		}

		params, ok := r.pattern.Match(req.Path)
		if !ok {
			continue
		}

		matched := req.Clone()
		matched.Params = params

		return callService(ctx, r.handler, matched)
	}

	notFound := rt.notFound
	if notFound == nil {
		notFound = HandlerFunc(defaultNotFound)
	}
	return callService(ctx, notFound, req)
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  Method // empty for routes that match any method
	Pattern string
	Name    string
}

// Routes lists the registered routes in match order.
func (rt Router) Routes() []RouteInfo {
	byIdx := lo.Invert(rt.names)

	return lo.Map(rt.routes, func(r route, i int) RouteInfo {
		return RouteInfo{Method: r.method, Pattern: r.pattern.String(), Name: byIdx[i]}
	})
}

// Reverse returns the path of the named route with vals substituted for its parameters in order.
func (rt Router) Reverse(name string, vals ...string) (string, error) {
	idx, ok := rt.names[name]
	if !ok {
		return "", errors.Newf("no route named: %q, got: %v", name, lo.Keys(rt.names))
	}

	path, err := rt.routes[idx].pattern.Build(vals...)
	if err != nil {
		return "", errors.Wrap(err, "failed to build")
	}

	return path, nil
}

// callService honours the readiness contract of a nested service before calling it.
func callService(ctx context.Context, s Service, req Request) (*Response, error) {
	if err := s.PollReady(ctx); err != nil {
		return nil, errors.Wrap(err, "handler not ready")
	}
	return s.Call(ctx, req)
}

func defaultNotFound(context.Context, Request) (*Response, error) {
	resp := NewResponse(StatusNotFound)
	resp.SetContentType("text/html")
	resp.SetBody([]byte(NotFoundBody))
	return resp, nil
}
