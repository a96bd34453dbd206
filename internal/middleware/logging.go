package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hryh/wendrops/internal/endpoint"
)

// LoggingProcessor logs one line per request with method, path, and
// duration. Errors are logged by whoever raised them; this processor only
// records the request shape, never header or cookie contents.
type LoggingProcessor struct {
	Log *slog.Logger
}

// NewLoggingProcessor returns a processor logging to log, or the default
// logger when nil.
func NewLoggingProcessor(log *slog.Logger) *LoggingProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingProcessor{Log: log}
}

// Process implements endpoint.Processor.
func (p *LoggingProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	start := time.Now()
	err := next(w, r)
	p.Log.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start),
	)
	return err
}

var _ endpoint.Processor = (*LoggingProcessor)(nil)
