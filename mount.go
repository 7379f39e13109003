package bserve

import (
	"context"
	"strings"
)

// Mount returns a router that sends every request below prefix to svc, whatever its method. The
// mounted service receives the request with the prefix stripped from the path; layers around the
// router still see the original path.
func (rt Router) Mount(prefix string, svc Service) Router {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return rt.Route("", "/", svc).Route("", "/*", svc)
	}

	stripped := stripPrefix(prefix, svc)

	return rt.Route("", prefix, stripped).Route("", prefix+"/*", stripped)
}

type stripPrefixService struct {
	wrapped
	depth int // segments in the prefix
}

func stripPrefix(prefix string, svc Service) Service {
	return stripPrefixService{wrapped{svc}, len(splitPath(prefix))}
}

// Call strips by segment, the way patterns match, so empty segments in the path do not keep the
// prefix attached.
func (s stripPrefixService) Call(ctx context.Context, req Request) (*Response, error) {
	segs := splitPath(req.Path)
	rest := segs[min(s.depth, len(segs)):]

	p := "/" + strings.Join(rest, "/")
	if len(rest) > 0 && strings.HasSuffix(req.Path, "/") {
		p += "/"
	}

	req.Path = p
	return s.inner.Call(ctx, req)
}
