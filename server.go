package bserve

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultReadChunkSize  = 4 * 1024    // 4kB
	DefaultMaxRequestSize = 1024 * 1024 // 1MB

	acceptRetryDelay = 5 * time.Millisecond
)

// ServerConfig bounds the work done per connection. Zero fields take the defaults above.
type ServerConfig struct {
	// ReadTimeout is the deadline for receiving the complete header block, counted from accept.
	ReadTimeout time.Duration
	// WriteTimeout is the deadline for writing the response, counted from the start of the write.
	WriteTimeout time.Duration
	// ReadChunkSize is the size of a single read from the connection.
	ReadChunkSize int
	// MaxRequestSize caps the bytes buffered while waiting for the end of the header block.
	MaxRequestSize int
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ReadChunkSize <= 0 {
		c.ReadChunkSize = DefaultReadChunkSize
	}
	if c.MaxRequestSize <= 0 {
		c.MaxRequestSize = DefaultMaxRequestSize
	}
	return c
}

// Server accepts TCP connections and serves exactly one request per connection through a [Service].
// Every connection is handled on its own goroutine; the service is shared by all of them and must not
// be reconfigured after Serve is called.
type Server struct {
	svc  Service
	logs Logger
	cfg  ServerConfig

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	conns    sync.WaitGroup
}

// NewServer creates a server that dispatches to svc.
func NewServer(svc Service, logs Logger, cfg ServerConfig) *Server {
	if logs == nil {
		logs = NewStdLogger(nil)
	}
	return &Server{svc: svc, logs: logs, cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (s *Server) Config() ServerConfig { return s.cfg }

// ListenAndServe listens on the TCP address and calls [Server.Serve].
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	return s.Serve(ctx, ln)
}

// Addr returns the address of the listener passed to Serve, or nil before that.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on ln until ctx is done or [Server.Shutdown] is called, and then returns
// [ErrServerClosed]. Accepting never waits on connection handling. Calls into the service run on a
// context that is not cancelled with ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	base := context.WithoutCancel(ctx)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil || s.isClosed() {
				return ErrServerClosed
			}

			s.logs.LogConnectionError("", errors.Wrap(err, "failed to accept connection"))
			time.Sleep(acceptRetryDelay)
			continue
		}

		if !s.track() {
			conn.Close()
			return ErrServerClosed
		}

		go func() {
			defer s.conns.Done()
			s.ServeConn(base, conn)
		}()
	}
}

// Shutdown stops accepting new connections and waits for in-flight connections to finish or ctx to
// expire. In-flight service calls are not cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return errors.Wrap(err, "failed to close listener")
		}
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeConn serves a single request on conn and closes it. Failures are logged and never escape.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer conn.Close()
	defer func() {
		if v := recover(); v != nil {
			s.logs.LogPanic(remote, v)
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		s.logs.LogConnectionError(remote, errors.Wrap(err, "failed to set read deadline"))
		return
	}

	raw, err := s.readRequest(conn)
	if err != nil {
		s.logs.LogConnectionError(remote, err)
		return
	}

	resp, err := s.dispatch(ctx, raw)
	if err != nil {
		switch CodeOf(err) {
		case CodeBadRequest:
			s.logs.LogParseError(remote, err)
		case CodeServiceUnavailable:
			s.logs.LogServiceNotReady(remote, err)
		default:
			s.logs.LogServiceError(remote, err)
		}
		resp = failureResponse(err)
	}

	// one exchange per connection
	resp.SetHeader("Connection", "close")

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		s.logs.LogConnectionError(remote, errors.Wrap(err, "failed to set write deadline"))
		return
	}

	if _, err := resp.WriteTo(conn); err != nil {
		s.logs.LogConnectionError(remote, errors.Wrap(err, "failed to send response"))
	}
}

// readRequest reads chunks until the accumulated bytes contain the header terminator. A body that
// streams past the terminator is only present as far as it arrived with the header block; the
// Content-Length header is not used to continue reading.
func (s *Server) readRequest(r io.Reader) ([]byte, error) {
	chunk := make([]byte, s.cfg.ReadChunkSize)
	var buf []byte

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			// the terminator may straddle two chunks
			from := max(0, len(buf)-len(headerTerminator)+1)
			buf = append(buf, chunk[:n]...)

			if bytes.Contains(buf[from:], headerTerminator) {
				return buf, nil
			}

			if len(buf) > s.cfg.MaxRequestSize {
				return nil, errors.Wrapf(ErrRequestTooLarge, "%d bytes without end of headers", len(buf))
			}
		}

		switch {
		case errors.Is(err, io.EOF), err == nil && n == 0:
			return nil, errors.Wrapf(ErrIncompleteRequest, "after %d bytes", len(buf))
		case err != nil:
			return nil, errors.Wrap(err, "failed to read request")
		}
	}
}

// dispatch parses raw and runs it through the service. The returned error carries the [Code] of the
// failure: bad request, service unavailable or internal server error.
func (s *Server) dispatch(ctx context.Context, raw []byte) (*Response, error) {
	req, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if err := s.svc.PollReady(ctx); err != nil {
		return nil, NewError(CodeServiceUnavailable, err)
	}

	resp, err := s.call(ctx, req)
	if err != nil {
		return nil, NewError(CodeInternalServerError, err)
	}

	return resp, nil
}

func (s *Server) call(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = errors.Newf("recovered: %v", v)
		}
	}()

	resp, err = s.svc.Call(ctx, req)
	if err == nil && resp == nil {
		err = ErrNilResponse
	}
	return resp, err
}

func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// failureResponse synthesizes the plain text response for a classified failure.
func failureResponse(err error) *Response {
	switch code := CodeOf(err); code {
	case CodeBadRequest, CodeServiceUnavailable:
		return textResponse(StatusCode(code))
	default:
		return textResponse(StatusInternalServerError)
	}
}
