package server

import (
	"net/http"
	"strconv"
	"time"

	"protv/internal/metrics"

	"github.com/sirupsen/logrus"
)

// unmatchedLabel replaces any path or method outside the routed set so the
// request counter keeps a fixed number of series.
const unmatchedLabel = "unmatched"

var metricPaths = map[string]struct{}{
	"/api":                     {},
	"/api/":                    {},
	"/api/health":              {},
	"/api/applications/submit": {},
	"/metrics":                 {},
}

var metricMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

func metricPath(path string) string {
	if _, ok := metricPaths[path]; ok {
		return path
	}
	return unmatchedLabel
}

func metricMethod(method string) string {
	if _, ok := metricMethods[method]; ok {
		return method
	}
	return unmatchedLabel
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		metrics.HTTPRequests.WithLabelValues(metricMethod(r.Method), metricPath(r.URL.Path), strconv.Itoa(rw.statusCode)).Inc()

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RecoverMiddleware turns a panicking handler into a 500 response.
func (s *Service) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
				}).Error("handler panicked")
				s.writeDetail(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
