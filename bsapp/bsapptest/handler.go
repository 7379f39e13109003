package bsapptest

import (
	"context"

	"github.com/advdv/bserve"
)

// CallHandler parses raw as a request and runs it through svc the way the server would, honouring the
// readiness probe. It handles the boilerplate of building a [bserve.Request] by hand.
func CallHandler(svc bserve.Service, raw string) *bserve.Response {
	req, err := bserve.Parse([]byte(raw))
	if err != nil {
		panic("bsapptest: failed to parse request: " + err.Error())
	}

	ctx := context.Background()
	if err := svc.PollReady(ctx); err != nil {
		panic("bsapptest: service not ready: " + err.Error())
	}

	resp, err := svc.Call(ctx, req)
	if err != nil {
		panic("bsapptest: handler returned error: " + err.Error())
	}

	return resp
}
