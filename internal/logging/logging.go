package logging

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// New creates a logger: human-readable text in dev, JSON otherwise.
// An unknown level falls back to info.
func New(env, level string) *logrus.Logger {
	return NewWithOutput(os.Stdout, env, level)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(out io.Writer, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if isDev(env) {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func isDev(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				entry := logger.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"remote":     r.RemoteAddr,
					"status":     status,
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				})
				switch {
				case status >= http.StatusInternalServerError:
					entry.Error("request completed")
				case status >= http.StatusBadRequest:
					entry.Warn("request completed")
				default:
					entry.Info("request completed")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
