// Package requestctx carries ambient request metadata (request id, actor,
// client address, user agent) through a context.Context so it never has to
// be threaded through call signatures. All getters tolerate absence: a
// background job with no active request simply reads nils.
package requestctx

import "context"

type ctxKeyRequestID struct{}
type ctxKeyActorID struct{}
type ctxKeyClientIP struct{}
type ctxKeyUserAgent struct{}

// Meta is the request-scoped metadata snapshot. Nil fields mean the value
// was not present (system-triggered work, unauthenticated request, ...).
type Meta struct {
	RequestID *string
	ActorID   *string
	ClientIP  *string
	UserAgent *string
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyActorID{}, id)
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP{}, ip)
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent{}, ua)
}

// RequestID returns the current request id, or "" when no request is active.
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return s
}

// ActorID returns the authenticated actor id, or "" for system actions.
func ActorID(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyActorID{}).(string)
	return s
}

func ClientIP(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyClientIP{}).(string)
	return s
}

func UserAgent(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyUserAgent{}).(string)
	return s
}

// FromContext collects all request metadata at once. Empty values come back
// as nil pointers so callers can persist them as SQL NULLs directly.
func FromContext(ctx context.Context) Meta {
	return Meta{
		RequestID: optional(RequestID(ctx)),
		ActorID:   optional(ActorID(ctx)),
		ClientIP:  optional(ClientIP(ctx)),
		UserAgent: optional(UserAgent(ctx)),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
