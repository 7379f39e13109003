// Package bsapptest provides test helpers for bsapp applications.
//
// It constructs the identical DI graph as [bsapp.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	bsapptest.SetBaseEnv(t)
//	app := bsapptest.New[TestEnv](t, routing, bsapp.WithFx(...))
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
//
//	resp, err := http.Get(app.URL("/health"))
package bsapptest

import (
	"testing"

	"github.com/advdv/bserve/bsapp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing bsapp applications.
type App struct {
	*fxtest.App
	endpoint *bsapp.Endpoint
}

// New creates a test app with the same DI graph as [bsapp.NewApp].
func New[E bsapp.Environment](t testing.TB, routing any, opts ...bsapp.Option) *App {
	app := &App{}
	fxOpts := append(bsapp.FxOptions[E](routing, opts...), fx.Populate(&app.endpoint))
	app.App = fxtest.New(t, fxOpts...)
	return app
}

// URL returns the http URL of path on the address the started app listens on.
func (a *App) URL(path string) string {
	return a.endpoint.URL(path)
}
