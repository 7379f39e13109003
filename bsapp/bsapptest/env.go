package bsapptest

import (
	"strconv"
	"testing"
	"time"
)

// Env provides a chainable builder for setting [bsapp.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [bsapp.BaseEnvironment] env vars to sensible test defaults.
// The server listens on a random loopback port so tests never collide.
//
// Defaults:
//   - BS_ADDR: "127.0.0.1:0"
//   - BS_SERVICE_NAME: "test"
//   - BS_HEALTH_PATH: "/health"
//   - BS_LOG_LEVEL: "error"
//   - BS_OTEL_EXPORTER: "none"
//
// Use the returned [Env] to override individual values:
//
//	bsapptest.SetBaseEnv(t).ServiceName("orders").ReadTimeout(time.Second)
func SetBaseEnv(t testing.TB) *Env {
	t.Helper()
	t.Setenv("BS_ADDR", "127.0.0.1:0")
	t.Setenv("BS_SERVICE_NAME", "test")
	t.Setenv("BS_HEALTH_PATH", "/health")
	t.Setenv("BS_LOG_LEVEL", "error")
	t.Setenv("BS_OTEL_EXPORTER", "none")
	return &Env{t: t}
}

// ServiceName overrides BS_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BS_SERVICE_NAME", name)
	return e
}

// HealthPath overrides BS_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BS_HEALTH_PATH", path)
	return e
}

// CORSAllowOrigin overrides BS_CORS_ALLOW_ORIGIN.
func (e *Env) CORSAllowOrigin(origin string) *Env {
	e.t.Helper()
	e.t.Setenv("BS_CORS_ALLOW_ORIGIN", origin)
	return e
}

// ReadTimeout overrides BS_READ_TIMEOUT.
func (e *Env) ReadTimeout(d time.Duration) *Env {
	e.t.Helper()
	e.t.Setenv("BS_READ_TIMEOUT", d.String())
	return e
}

// MaxRequestSize overrides BS_MAX_REQUEST_SIZE.
func (e *Env) MaxRequestSize(n int) *Env {
	e.t.Helper()
	e.t.Setenv("BS_MAX_REQUEST_SIZE", strconv.Itoa(n))
	return e
}
