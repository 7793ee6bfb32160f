package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ericlee/eoss/internal/logger"
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// requestIDFromContext returns the request ID assigned by requestID
// middleware, or "" if called outside a request handled by it.
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID assigns an opaque request ID, stores it in the context, and
// sets X-EOSS-Request-ID on every response (spec.md §4.6, §6).
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-EOSS-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog writes one raw line per response to accessLog in the format
// "<req-id> <latency-ms> <client-ip> <method> <path> <status> <user-agent>"
// (spec.md §4.6).
func accessLog(accessLogger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			latencyMs := time.Since(start).Milliseconds()
			clientIP := r.RemoteAddr
			if host, _, err := net.SplitHostPort(clientIP); err == nil {
				clientIP = host
			}
			line := fmt.Sprintf("%s %d %s %s %s %d %s",
				requestIDFromContext(r.Context()),
				latencyMs,
				clientIP,
				r.Method,
				r.URL.Path,
				ww.Status(),
				r.UserAgent(),
			)
			if accessLogger != nil {
				accessLogger.Raw(line)
			}
		})
	}
}
