package middleware

import (
	"net/http"

	"github.com/calterra/adminaudit/internal/core"
	"github.com/calterra/adminaudit/internal/requestctx"
)

const RequestIDHeader = "X-Request-ID"

// RequestID injects a request ID into the context so every audit record
// produced during the request can be correlated back to it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = core.NewID()
		}
		ctx := requestctx.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(r *http.Request) string {
	if id := requestctx.RequestID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(RequestIDHeader)
}
