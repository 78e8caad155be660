package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	clientKey    contextKey = "client"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or generates one, echoes it on the
// response and stores it in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// GetRequestID returns the ID set by RequestID, or "".
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// ClientIP resolves the caller address used for rate limiting. The first
// X-Forwarded-For hop wins, then X-Real-IP, then the connection address.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(SetClient(r.Context(), clientAddr(r))))
	})
}

// SetClient stores the client identity in ctx.
func SetClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

// GetClient returns the identity stored by ClientIP.
func GetClient(r *http.Request) (string, bool) {
	c, ok := r.Context().Value(clientKey).(string)
	return c, ok && c != ""
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
