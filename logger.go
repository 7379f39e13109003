package bserve

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about failed exchanges. Every failure is local to one
// connection; none of them stops the server.
type Logger interface {
	LogConnectionError(remote string, err error)
	LogParseError(remote string, err error)
	LogServiceNotReady(remote string, err error)
	LogServiceError(remote string, err error)
	LogPanic(remote string, v any)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogConnectionError(remote string, err error) {
	l.Logger.Printf("bserve: connection error from %s: %s", remote, err)
}

func (l stdLogger) LogParseError(remote string, err error) {
	l.Logger.Printf("bserve: failed to parse request from %s: %s", remote, err)
}

func (l stdLogger) LogServiceNotReady(remote string, err error) {
	l.Logger.Printf("bserve: service not ready for %s: %s", remote, err)
}

func (l stdLogger) LogServiceError(remote string, err error) {
	l.Logger.Printf("bserve: error processing request from %s: %s", remote, err)
}

func (l stdLogger) LogPanic(remote string, v any) {
	l.Logger.Printf("bserve: panic while serving %s: %v", remote, v)
}

func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}
	return stdLogger{l}
}

type TestLogger struct {
	tb testing.TB

	NumLogConnectionError int64
	NumLogParseError      int64
	NumLogServiceNotReady int64
	NumLogServiceError    int64
	NumLogPanic           int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogConnectionError(remote string, err error) {
	atomic.AddInt64(&l.NumLogConnectionError, 1)
	l.tb.Logf("bserve: connection error from %s: %s", remote, err)
}

func (l *TestLogger) LogParseError(remote string, err error) {
	atomic.AddInt64(&l.NumLogParseError, 1)
	l.tb.Logf("bserve: failed to parse request from %s: %s", remote, err)
}

func (l *TestLogger) LogServiceNotReady(remote string, err error) {
	atomic.AddInt64(&l.NumLogServiceNotReady, 1)
	l.tb.Logf("bserve: service not ready for %s: %s", remote, err)
}

func (l *TestLogger) LogServiceError(remote string, err error) {
	atomic.AddInt64(&l.NumLogServiceError, 1)
	l.tb.Logf("bserve: error processing request from %s: %s", remote, err)
}

func (l *TestLogger) LogPanic(remote string, v any) {
	atomic.AddInt64(&l.NumLogPanic, 1)
	l.tb.Logf("bserve: panic while serving %s: %v", remote, v)
}

// Count returns the number of logged events of every kind together.
func (l *TestLogger) Count() int64 {
	return atomic.LoadInt64(&l.NumLogConnectionError) +
		atomic.LoadInt64(&l.NumLogParseError) +
		atomic.LoadInt64(&l.NumLogServiceNotReady) +
		atomic.LoadInt64(&l.NumLogServiceError) +
		atomic.LoadInt64(&l.NumLogPanic)
}

var _ Logger = &TestLogger{}
