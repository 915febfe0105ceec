package middleware

import (
	"net"
	"net/http"

	"github.com/calterra/adminaudit/internal/requestctx"
)

// ActorIDHeader carries the authenticated actor id set by the auth proxy
// in front of this service. Absent means a system-triggered request.
const ActorIDHeader = "X-Actor-ID"

// RequestMeta stashes actor id, client IP and user agent into the context
// for the audit pipeline to pick up at record-build time.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if actor := r.Header.Get(ActorIDHeader); actor != "" {
			ctx = requestctx.WithActorID(ctx, actor)
		}
		if ip := clientIP(r); ip != "" {
			ctx = requestctx.WithClientIP(ctx, ip)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = requestctx.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
