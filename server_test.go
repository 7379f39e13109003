package bserve_test

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/advdv/bserve"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer serves svc on a loopback listener until the test ends.
func startServer(t *testing.T, svc bserve.Service, cfg bserve.ServerConfig) (string, *bserve.TestLogger) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logs := bserve.NewTestLogger(t)
	srv := bserve.NewServer(svc, logs, cfg)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(context.Background(), ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Shutdown(ctx))
		require.ErrorIs(t, <-served, bserve.ErrServerClosed)
	})

	return ln.Addr().String(), logs
}

// exchange writes raw in a single write and returns everything the server sends back.
func exchange(t *testing.T, addr, raw string, closeWrite bool) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(conn, raw)
	require.NoError(t, err)

	if closeWrite {
		require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	}

	// a reset is expected when the server closes with unread input
	out, _ := io.ReadAll(conn)
	return out
}

func roundTrip(t *testing.T, addr, raw string) (*http.Response, string) {
	t.Helper()

	out := exchange(t, addr, raw, false)
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(out)), nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func greetRouter() bserve.Router {
	return bserve.NewRouter().
		Get("/hello/:name", func(_ context.Context, req bserve.Request) (*bserve.Response, error) {
			name, _ := req.Param("name")
			resp := bserve.NewResponse(bserve.StatusOK)
			resp.SetContentType("text/plain")
			resp.SetBody([]byte("hello " + name))
			return resp, nil
		}).
		Post("/echo", func(_ context.Context, req bserve.Request) (*bserve.Response, error) {
			resp := bserve.NewResponse(bserve.StatusCreated)
			resp.SetBody(req.Body)
			return resp, nil
		}).
		Get("/fail", func(context.Context, bserve.Request) (*bserve.Response, error) {
			return nil, errors.New("handler failed")
		}).
		Get("/panic", func(context.Context, bserve.Request) (*bserve.Response, error) {
			panic("handler panicked")
		})
}

func TestServeWithHTTPClient(t *testing.T) {
	addr, logs := startServer(t, greetRouter(), bserve.ServerConfig{})

	var body string
	err := requests.URL("http://" + addr + "/hello/bob").
		ToString(&body).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello bob", body)

	err = requests.URL("http://" + addr + "/nope").
		CheckStatus(http.StatusNotFound).
		ToString(&body).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bserve.NotFoundBody, body)
	assert.Equal(t, int64(0), logs.Count())
}

func TestServeResponseHeaders(t *testing.T) {
	addr, _ := startServer(t, greetRouter(), bserve.ServerConfig{})

	resp, body := roundTrip(t, addr, "GET /hello/ann HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HTTP/1.1", resp.Proto)
	assert.Equal(t, "hello ann", body)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "9", resp.Header.Get("Content-Length"))
	assert.Equal(t, bserve.ServerName, resp.Header.Get("Server"))
	assert.True(t, resp.Close, "Connection: close")
	assert.NotEmpty(t, resp.Header.Get("Date"))
}

func TestServeBodyInHeaderRead(t *testing.T) {
	addr, _ := startServer(t, greetRouter(), bserve.ServerConfig{})

	resp, body := roundTrip(t, addr, "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello", body)
}

func TestServeFailures(t *testing.T) {
	addr, logs := startServer(t, greetRouter(), bserve.ServerConfig{})

	t.Run("bad request", func(t *testing.T) {
		resp, body := roundTrip(t, addr, "NONSENSE\r\n\r\n")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Bad Request", body)
		assert.Equal(t, int64(1), atomic.LoadInt64(&logs.NumLogParseError))
	})

	t.Run("unknown method", func(t *testing.T) {
		resp, _ := roundTrip(t, addr, "BREW /pot HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("handler error", func(t *testing.T) {
		resp, body := roundTrip(t, addr, "GET /fail HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal Server Error", body)
		assert.Equal(t, int64(1), atomic.LoadInt64(&logs.NumLogServiceError))
	})

	t.Run("handler panic", func(t *testing.T) {
		resp, _ := roundTrip(t, addr, "GET /panic HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, int64(2), atomic.LoadInt64(&logs.NumLogServiceError))
	})

	t.Run("still serving", func(t *testing.T) {
		resp, body := roundTrip(t, addr, "GET /hello/again HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello again", body)
	})
}

func TestServeNotReady(t *testing.T) {
	addr, logs := startServer(t, notReadyService{}, bserve.ServerConfig{})

	resp, body := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Service Unavailable", body)
	assert.Equal(t, int64(1), atomic.LoadInt64(&logs.NumLogServiceNotReady))
}

func TestServeNoResponse(t *testing.T) {
	addr, logs := startServer(t, greetRouter(), bserve.ServerConfig{
		ReadTimeout:    200 * time.Millisecond,
		MaxRequestSize: 64,
	})

	t.Run("closed before end of headers", func(t *testing.T) {
		out := exchange(t, addr, "GET /hello/bob HTTP/1.1\r\nHost: x\r\n", true)
		assert.Empty(t, out)
	})

	t.Run("empty connection", func(t *testing.T) {
		out := exchange(t, addr, "", true)
		assert.Empty(t, out)
	})

	t.Run("oversized header block", func(t *testing.T) {
		out := exchange(t, addr, "GET /"+strings.Repeat("a", 256)+" HTTP/1.1\r\n", false)
		assert.Empty(t, out)
	})

	t.Run("read timeout", func(t *testing.T) {
		out := exchange(t, addr, "GET / HTTP/1.1\r\n", false)
		assert.Empty(t, out)
	})

	assert.Equal(t, int64(4), atomic.LoadInt64(&logs.NumLogConnectionError))
	assert.Equal(t, int64(4), logs.Count())
}

func TestServeIsolatesConnections(t *testing.T) {
	addr, _ := startServer(t, greetRouter(), bserve.ServerConfig{ReadTimeout: time.Second})

	// a stalled peer must not hold up anybody else
	stalled, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer stalled.Close()
	_, err = io.WriteString(stalled, "GET /hello/slow HTTP/1.1\r\n")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var body string
			err := requests.URL("http://" + addr + "/hello/fast").
				ToString(&body).
				Fetch(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "hello fast", body)
		}()
	}
	wg.Wait()

	_, err = io.WriteString(stalled, "\r\n")
	require.NoError(t, err)
	out, _ := io.ReadAll(stalled)
	assert.Contains(t, string(out), "hello slow")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := bserve.NewServer(greetRouter(), bserve.NewTestLogger(t), bserve.ServerConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	cancel()
	require.ErrorIs(t, <-served, bserve.ErrServerClosed)

	_, err = net.Dial("tcp", ln.Addr().String())
	require.Error(t, err)
}

func TestShutdownWaitsForConnections(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	svc := bserve.HandlerFunc(func(context.Context, bserve.Request) (*bserve.Response, error) {
		close(entered)
		<-release
		return bserve.NewResponse(bserve.StatusNoContent), nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := bserve.NewServer(svc, bserve.NewTestLogger(t), bserve.ServerConfig{})
	served := make(chan error, 1)
	go func() { served <- srv.Serve(context.Background(), ln) }()

	got := make(chan []byte, 1)
	go func() { got <- exchange(t, ln.Addr().String(), "GET / HTTP/1.1\r\n\r\n", false) }()
	<-entered

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, srv.Shutdown(short), context.DeadlineExceeded)
	require.ErrorIs(t, <-served, bserve.ErrServerClosed)

	close(release)
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Contains(t, string(<-got), "HTTP/1.1 204 No Content")

	require.ErrorIs(t, srv.Serve(context.Background(), ln), bserve.ErrServerClosed)
}
