package example

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/bsapp"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Env is the environment of the demo application.
type Env struct {
	bsapp.BaseEnvironment
	StaticDir   string `env:"EXAMPLE_STATIC_DIR" envDefault:"public"`
	UpstreamURL string `env:"EXAMPLE_UPSTREAM_URL"`
}

const indexBody = `<html><body><h1>Welcome to bserve</h1><p>Built with layered services and routing.</p></body></html>`

// User is the JSON representation of a demo user.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status,omitempty"`
	Self   string `json:"self,omitempty"`
}

// Handlers implements the demo routes.
type Handlers struct {
	rt *bsapp.Runtime[Env]
}

func NewHandlers(rt *bsapp.Runtime[Env]) *Handlers {
	return &Handlers{rt: rt}
}

// Routing builds the demo router.
func Routing(h *Handlers) bserve.Router {
	return bserve.NewRouter().
		Get("/", h.Index, "index").
		Get("/hello", h.Hello, "hello").
		Get("/users/:id", h.User, "user").
		Post("/users", h.CreateUser, "create-user").
		Get("/static/*", h.Static, "static").
		Get("/relay/*", h.Relay, "relay")
}

func (h *Handlers) Index(context.Context, bserve.Request) (*bserve.Response, error) {
	resp := bserve.NewResponse(bserve.StatusOK)
	resp.SetContentType("text/html")
	resp.SetBody([]byte(indexBody))
	return resp, nil
}

// Hello greets the "name" query parameter.
func (h *Handlers) Hello(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	name, ok := req.QueryParam("name")
	if !ok || name == "" {
		name = "World"
	}

	Log(ctx).Debug("greeting", zap.String("name", name))

	resp := bserve.NewResponse(bserve.StatusOK)
	resp.SetContentType("text/plain")
	resp.SetBody([]byte("Hello, " + name + "!"))
	return resp, nil
}

// User returns the user with the id from the path.
func (h *Handlers) User(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	id, ok := req.Param("id")
	if !ok {
		return nil, errors.New("missing user ID")
	}

	self, err := h.rt.Reverse("user", id)
	if err != nil {
		return nil, errors.Wrap(err, "reverse")
	}

	bsapp.Span(ctx).AddEvent("loading user")

	return jsonResponse(bserve.StatusOK, User{
		ID:    id,
		Name:  "User " + id,
		Email: "user" + id + "@example.com",
		Self:  self,
	})
}

// CreateUser accepts a JSON user and echoes it with a fresh id.
func (h *Handlers) CreateUser(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	in, err := bserve.DecodeJSON[User](req)
	if err != nil {
		return textResponse(bserve.StatusBadRequest, err.Error()), nil
	}

	if in.Name == "" {
		in.Name = "New User"
	}

	out := User{ID: "new-user-123", Name: in.Name, Email: in.Email, Status: "created"}
	out.Self, err = h.rt.Reverse("user", out.ID)
	if err != nil {
		return nil, errors.Wrap(err, "reverse")
	}

	bsapp.Log(ctx).Info("created user", zap.String("id", out.ID))

	return jsonResponse(bserve.StatusCreated, out)
}

// Static serves files below the configured static directory. Paths cannot escape it.
func (h *Handlers) Static(_ context.Context, req bserve.Request) (*bserve.Response, error) {
	name := strings.TrimPrefix(req.Path, "/static/")

	f, err := os.OpenInRoot(h.rt.Env().StaticDir, name)
	if err != nil {
		return fileNotFound(), nil
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return fileNotFound(), nil
	}

	resp := bserve.NewResponse(bserve.StatusOK)
	resp.SetContentType(contentType(name))
	resp.SetBody(content)
	return resp, nil
}

// Relay forwards a GET below /relay/ to EXAMPLE_UPSTREAM_URL and answers with the upstream status,
// content type and body. The outbound call carries the trace context and the request id.
func (h *Handlers) Relay(ctx context.Context, req bserve.Request) (*bserve.Response, error) {
	upstream := h.rt.Env().UpstreamURL
	if upstream == "" {
		return textResponse(bserve.StatusServiceUnavailable, "no upstream configured"), nil
	}

	var (
		body   bytes.Buffer
		status int
		header = http.Header{}
	)

	err := h.rt.NewRequest().
		BaseURL(strings.TrimSuffix(upstream, "/") + "/" + strings.TrimPrefix(req.Path, "/relay/")).
		AddValidator(func(r *http.Response) error {
			status = r.StatusCode
			return nil
		}).
		CopyHeaders(header).
		ToBytesBuffer(&body).
		Fetch(ctx)
	if err != nil {
		bsapp.Log(ctx).Warn("relay failed", zap.String("upstream", upstream), zap.Error(err))
		return textResponse(bserve.StatusBadGateway, "upstream unreachable"), nil
	}

	resp := bserve.NewResponse(bserve.StatusCode(status))
	if ct := header.Get("Content-Type"); ct != "" {
		resp.SetContentType(ct)
	}
	resp.SetBody(body.Bytes())
	return resp, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		return "text/html"
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func fileNotFound() *bserve.Response {
	resp := bserve.NewResponse(bserve.StatusNotFound)
	resp.SetContentType("text/html")
	resp.SetBody([]byte(`<html><body><h1>404 - File Not Found</h1></body></html>`))
	return resp
}

func textResponse(status bserve.StatusCode, text string) *bserve.Response {
	resp := bserve.NewResponse(status)
	resp.SetContentType("text/plain")
	resp.SetBody([]byte(text))
	return resp
}

func jsonResponse(status bserve.StatusCode, v any) (*bserve.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode JSON")
	}

	resp := bserve.NewResponse(status)
	resp.SetContentType("application/json")
	resp.SetBody(body)
	return resp, nil
}
