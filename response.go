package bserve

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ServerName is the value of the Server header on every response created with [NewResponse].
const ServerName = "bserve/0.1"

// StatusCode is a numeric response status.
type StatusCode int

const (
	StatusOK                  StatusCode = http.StatusOK
	StatusCreated             StatusCode = http.StatusCreated
	StatusAccepted            StatusCode = http.StatusAccepted
	StatusNoContent           StatusCode = http.StatusNoContent
	StatusBadRequest          StatusCode = http.StatusBadRequest
	StatusUnauthorized        StatusCode = http.StatusUnauthorized
	StatusForbidden           StatusCode = http.StatusForbidden
	StatusNotFound            StatusCode = http.StatusNotFound
	StatusMethodNotAllowed    StatusCode = http.StatusMethodNotAllowed
	StatusInternalServerError StatusCode = http.StatusInternalServerError
	StatusNotImplemented      StatusCode = http.StatusNotImplemented
	StatusBadGateway          StatusCode = http.StatusBadGateway
	StatusServiceUnavailable  StatusCode = http.StatusServiceUnavailable
)

// Reason returns the reason phrase, "Unknown" for codes without one.
func (c StatusCode) Reason() string {
	if s := http.StatusText(int(c)); s != "" {
		return s
	}
	return "Unknown"
}

// Response is the result of a service call. Responses are always serialized as HTTP/1.1. The body is only
// reachable through [Response.SetBody] so the Content-Length header always equals the body length.
type Response struct {
	Status  StatusCode
	Headers map[string]string
	body    []byte
}

// NewResponse creates an HTTP/1.1 response with the Server and Date headers set and an empty body.
func NewResponse(status StatusCode) *Response {
	return &Response{
		Status: status,
		Headers: map[string]string{
			"Server": ServerName,
			"Date":   time.Now().UTC().Format(http.TimeFormat),
		},
	}
}

// SetBody replaces the body and recomputes Content-Length.
func (r *Response) SetBody(body []byte) {
	r.body = body
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
}

// Body returns the response body.
func (r *Response) Body() []byte { return r.body }

// SetContentType sets the Content-Type header.
func (r *Response) SetContentType(ct string) {
	r.SetHeader("Content-Type", ct)
}

// SetHeader sets a header, replacing any previous value.
func (r *Response) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	r.Headers[name] = value
}

// Header returns the value of a header.
func (r *Response) Header(name string) (string, bool) {
	v, ok := r.Headers[name]
	return v, ok
}

// Bytes serializes the response: status line, headers in map order, blank line, raw body. A
// Content-Length header, however it was set, is written as the length of the body.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(64 + 32*len(r.Headers) + len(r.body))

	buf.WriteString(Version11.String())
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(int(r.Status)))
	buf.WriteByte(' ')
	buf.WriteString(r.Status.Reason())
	buf.WriteString("\r\n")

	for name, value := range r.Headers {
		if strings.EqualFold(name, "Content-Length") {
			value = strconv.Itoa(len(r.body))
		}

		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")
	buf.Write(r.body)

	return buf.Bytes()
}

// WriteTo writes the serialized response to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// textResponse builds the plain text responses the server synthesizes for failed exchanges.
func textResponse(status StatusCode) *Response {
	resp := NewResponse(status)
	resp.SetContentType("text/plain")
	resp.SetBody([]byte(status.Reason()))
	return resp
}
