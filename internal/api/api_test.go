package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/api/middleware"
	"github.com/calterra/adminaudit/internal/core"
	"github.com/calterra/adminaudit/internal/requestctx"
	"github.com/calterra/adminaudit/internal/store"
)

// Mock tests for API handlers without DB dependency

func TestHealthHandler(t *testing.T) {
	api := &API{}
	r := chi.NewRouter()
	r.Get("/healthz", api.HealthHandler)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("expected body OK, got %s", w.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, core.NewAppError(core.ErrBadRequest, "test error"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp.Code != "AUDIT_BAD_REQUEST" {
		t.Errorf("expected code AUDIT_BAD_REQUEST, got %s", resp.Code)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"key": "value"}
	WriteJSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp["key"] != "value" {
		t.Errorf("expected key=value, got %v", resp)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.RequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen == "" {
		t.Fatal("expected a generated request id in the context")
	}
	if got := w.Header().Get(middleware.RequestIDHeader); got != seen {
		t.Errorf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDMiddlewarePreservesInbound(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.RequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-inbound")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "req-inbound" {
		t.Errorf("inbound request id not preserved, got %q", seen)
	}
}

func TestRequestMetaMiddleware(t *testing.T) {
	var meta requestctx.Meta
	h := middleware.RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta = requestctx.FromContext(r.Context())
	}))

	req := httptest.NewRequest("PUT", "/v1/roles/1", nil)
	req.Header.Set(middleware.ActorIDHeader, "admin-7")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "test-agent/1.0")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if meta.ActorID == nil || *meta.ActorID != "admin-7" {
		t.Errorf("actor id not captured: %v", meta.ActorID)
	}
	if meta.ClientIP == nil || *meta.ClientIP != "203.0.113.9" {
		t.Errorf("client ip not captured: %v", meta.ClientIP)
	}
	if meta.UserAgent == nil || *meta.UserAgent != "test-agent/1.0" {
		t.Errorf("user agent not captured: %v", meta.UserAgent)
	}
}

func TestRequestMetaMiddlewareWithoutActor(t *testing.T) {
	var meta requestctx.Meta
	h := middleware.RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta = requestctx.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.4:51234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if meta.ActorID != nil {
		t.Errorf("expected nil actor for unauthenticated request, got %q", *meta.ActorID)
	}
	if meta.ClientIP == nil || *meta.ClientIP != "198.51.100.4" {
		t.Errorf("remote addr host not captured: %v", meta.ClientIP)
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 50},
		{"0", 50},
		{"-3", 50},
		{"25", 25},
		{"9999", 200},
		{"junk", 50},
	}
	for _, tc := range cases {
		if got := parseLimit(tc.in, 50, 200); got != tc.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAuditLogResponseStates(t *testing.T) {
	a := &API{log: zap.NewNop()}

	resp := a.auditLogToResponse(store.AuditLog{
		ID:           uuid.New(),
		Action:       "UPDATE",
		ResourceType: "role",
		OldState:     []byte(`{"name":"admin"}`),
		NewState:     []byte(`{broken`),
	})
	if resp.OldState["name"] != "admin" {
		t.Errorf("old state not rendered: %v", resp.OldState)
	}
	// Corrupt stored state renders as null without panicking.
	if resp.NewState != nil {
		t.Errorf("expected nil new state for corrupt payload, got %v", resp.NewState)
	}

	resp = a.auditLogToResponse(store.AuditLog{ID: uuid.New(), Action: "DELETE", ResourceType: "role"})
	if resp.OldState != nil || resp.NewState != nil {
		t.Errorf("absent states must render as nil, got %v / %v", resp.OldState, resp.NewState)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 123456000, time.UTC)
	enc := encodeCursor(pgtype.Timestamptz{Time: ts, Valid: true})
	if enc == "" {
		t.Fatal("expected non-empty cursor for a valid timestamp")
	}
	got, err := decodeCursor(enc)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("round trip mangled cursor: %v", got)
	}

	if enc := encodeCursor(pgtype.Timestamptz{}); enc != "" {
		t.Errorf("expected empty cursor for null timestamp, got %q", enc)
	}
	if _, err := decodeCursor("not base64!!"); err == nil {
		t.Error("expected error for malformed cursor")
	}
}
