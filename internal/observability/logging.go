// Package observability provides structured logging and metrics.
package observability

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// SetLevel rebuilds the global logger with the given level.
func SetLevel(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
	slog.SetDefault(GlobalLogger.Logger)
}

// FromContext returns the global logger annotated with the request id, if any.
func FromContext(ctx context.Context) *Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return &Logger{Logger: GlobalLogger.With(slog.String("request_id", id))}
	}
	return GlobalLogger
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// LogError logs a failed repository operation.
func (l *RepoLogger) LogError(ctx context.Context, operation string, err error, attrs ...any) {
	attrs = append(attrs,
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.Any("error", err),
	)
	FromContext(ctx).ErrorContext(ctx, "repository error", attrs...)
}

// LogWrite logs a successful mutation.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, attrs ...any) {
	attrs = append(attrs,
		slog.String("table", l.table),
		slog.String("operation", operation),
	)
	FromContext(ctx).InfoContext(ctx, "repository write", attrs...)
}

// RequestLogger logs one line per request and records request metrics.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rctx := chiRoutePattern(r); rctx != "" {
			route = rctx
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		FromContext(r.Context()).InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", elapsed),
		)
	})
}
