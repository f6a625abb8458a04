package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds the service logger: console output in development, JSON
// with caller information otherwise. Unknown levels fall back to info.
func NewLogger(out io.Writer, serviceName, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if env == "development" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		base = zerolog.New(out).With().Caller().Logger()
	}

	return base.Level(lvl).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// InitLogger installs the service logger as the global zerolog logger and returns it
func InitLogger(serviceName, env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := NewLogger(os.Stdout, serviceName, env, level)
	zerolog.SetGlobalLevel(logger.GetLevel())
	log.Logger = logger
	return logger
}

// LoggerFromContext returns the global logger tagged with the trace and span
// ids of ctx, when it carries a span
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return log.Logger
	}
	return log.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}
