package bsapp

import (
	"time"

	"github.com/advdv/bserve"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	addr() string
	serviceName() string
	healthPath() string
	logLevel() zapcore.Level
	otelExporter() string
	corsAllowOrigin() string
	serverConfig() bserve.ServerConfig
}

// BaseEnvironment contains the environment variables every bserve app reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Addr            string        `env:"BS_ADDR" envDefault:":8080"`
	ServiceName     string        `env:"BS_SERVICE_NAME,required,notEmpty"`
	HealthPath      string        `env:"BS_HEALTH_PATH" envDefault:"/health"`
	LogLevel        zapcore.Level `env:"BS_LOG_LEVEL" envDefault:"info"`
	OtelExporter    string        `env:"BS_OTEL_EXPORTER" envDefault:"stdout"`
	CORSAllowOrigin string        `env:"BS_CORS_ALLOW_ORIGIN" envDefault:"*"`

	ReadTimeout    time.Duration `env:"BS_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout   time.Duration `env:"BS_WRITE_TIMEOUT" envDefault:"30s"`
	ReadChunkSize  int           `env:"BS_READ_CHUNK_SIZE" envDefault:"4096"`
	MaxRequestSize int           `env:"BS_MAX_REQUEST_SIZE" envDefault:"1048576"`
}

func (e BaseEnvironment) addr() string {
	return e.Addr
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) healthPath() string {
	return e.HealthPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) corsAllowOrigin() string {
	return e.CORSAllowOrigin
}

func (e BaseEnvironment) serverConfig() bserve.ServerConfig {
	return bserve.ServerConfig{
		ReadTimeout:    e.ReadTimeout,
		WriteTimeout:   e.WriteTimeout,
		ReadChunkSize:  e.ReadChunkSize,
		MaxRequestSize: e.MaxRequestSize,
	}
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
