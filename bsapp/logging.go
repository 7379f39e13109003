package bsapp

import (
	"github.com/advdv/bserve"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding with ISO8601 timestamps; BS_LOG_LEVEL controls the level.
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogConnectionError(remote string, err error) {
	l.Logger.Warn("connection error", zap.String("remote", remote), zap.Error(err))
}

func (l zapLogger) LogParseError(remote string, err error) {
	l.Logger.Warn("failed to parse request", zap.String("remote", remote), zap.Error(err))
}

func (l zapLogger) LogServiceNotReady(remote string, err error) {
	l.Logger.Warn("service not ready", zap.String("remote", remote), zap.Error(err))
}

func (l zapLogger) LogServiceError(remote string, err error) {
	l.Logger.Error("error processing request", zap.String("remote", remote), zap.Error(err))
}

func (l zapLogger) LogPanic(remote string, v any) {
	l.Logger.Error("panic while serving connection", zap.String("remote", remote), zap.Any("panic", v))
}

func newZapServerLogger(l *zap.Logger) bserve.Logger {
	return zapLogger{l.Named("bserve").Named("server")}
}
