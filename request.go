package bserve

import (
	"encoding/json"
	"maps"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// Method is a request method. Only the methods below are recognized by the parser.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodPatch   Method = "PATCH"
)

// ParseMethod resolves a method token case-insensitively.
func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToUpper(s)); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead,
		MethodConnect, MethodOptions, MethodTrace, MethodPatch:
		return m, true
	default:
		return "", false
	}
}

// Version is the protocol version of a request or response.
type Version int

const (
	VersionUnknown Version = iota
	Version10
	Version11
	Version20
)

// ParseVersion maps a version token onto a Version. Unrecognized tokens map to VersionUnknown.
func ParseVersion(s string) Version {
	switch s {
	case "HTTP/1.0":
		return Version10
	case "HTTP/1.1":
		return Version11
	case "HTTP/2.0":
		return Version20
	default:
		return VersionUnknown
	}
}

func (v Version) String() string {
	switch v {
	case Version10:
		return "HTTP/1.0"
	case Version11:
		return "HTTP/1.1"
	case Version20:
		return "HTTP/2.0"
	default:
		return "UNKNOWN"
	}
}

// Request is a parsed request. It is created once per connection by [Parse]; the [Router] replaces
// Params on a copy before handing it to the matched handler.
type Request struct {
	Method  Method
	Path    string // never includes the query string
	Version Version
	Headers map[string]string
	Body    []byte
	Query   map[string]string
	Params  map[string]string
}

// Param returns the named path parameter captured by the router.
func (r Request) Param(name string) (string, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// QueryParam returns the named query parameter.
func (r Request) QueryParam(name string) (string, bool) {
	v, ok := r.Query[name]
	return v, ok
}

// Header returns the header value for the exact (case-sensitive) name.
func (r Request) Header(name string) (string, bool) {
	v, ok := r.Headers[name]
	return v, ok
}

// Clone returns a copy of r whose maps and body can be modified without affecting r.
func (r Request) Clone() Request {
	r.Headers = maps.Clone(r.Headers)
	r.Query = maps.Clone(r.Query)
	r.Params = maps.Clone(r.Params)
	if r.Body != nil {
		r.Body = append([]byte(nil), r.Body...)
	}
	return r
}

// BodyPath looks up a value in a JSON body using gjson path syntax (e.g. "user.name", "items.0").
func (r Request) BodyPath(path string) (string, bool) {
	res := gjson.GetBytes(r.Body, path)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// DecodeJSON decodes the request body as JSON into a value of type T.
func DecodeJSON[T any](r Request) (T, error) {
	var v T
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return v, errors.Wrap(err, "failed to parse JSON")
	}
	return v, nil
}
