package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/core"
	"github.com/calterra/adminaudit/internal/store"
)

type AuditLogResponse struct {
	ID           string                 `json:"id"`
	ActorID      string                 `json:"actor_id,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	OldState     map[string]interface{} `json:"old_state,omitempty"`
	NewState     map[string]interface{} `json:"new_state,omitempty"`
	ClientIP     string                 `json:"client_ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

// ListAuditLogs lists audit trail entries with filters. Write order is not
// an ordering guarantee for the trail; the listing sorts on creation
// timestamp, which is what consumers should key on.
func (a *API) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"), 20, 100)

	logs, err := a.queries.ListAuditLogs(ctx, store.ListAuditLogsParams{
		ResourceType: textFromString(q.Get("resource_type")),
		ResourceID:   textFromString(q.Get("resource_id")),
		Action:       textFromString(q.Get("action")),
		ActorID:      textFromString(q.Get("actor_id")),
		RequestID:    textFromString(q.Get("request_id")),
		Cursor:       parseCursor(q.Get("cursor")),
		Limit:        int32(limit),
	})
	if err != nil {
		a.log.Error("list audit logs failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to list audit logs"))
		return
	}

	resp := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = a.auditLogToResponse(l)
	}

	var nextCursor string
	if len(logs) == limit {
		nextCursor = encodeCursor(logs[len(logs)-1].CreatedAt)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"audit_logs":  resp,
		"next_cursor": nextCursor,
	})
}

// GetAuditLog gets a single audit trail entry by ID.
func (a *API) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid audit log id"))
		return
	}

	entry, err := a.queries.GetAuditLog(ctx, id)
	if err != nil {
		WriteError(w, core.NewAppError(core.ErrNotFound, "audit log not found"))
		return
	}
	WriteJSON(w, http.StatusOK, a.auditLogToResponse(entry))
}

func (a *API) auditLogToResponse(l store.AuditLog) AuditLogResponse {
	var oldState, newState map[string]interface{}
	if l.OldState != nil {
		if err := json.Unmarshal(l.OldState, &oldState); err != nil {
			a.log.Warn("audit log old state unreadable",
				zap.String("id", l.ID.String()), zap.Error(err))
		}
	}
	if l.NewState != nil {
		if err := json.Unmarshal(l.NewState, &newState); err != nil {
			a.log.Warn("audit log new state unreadable",
				zap.String("id", l.ID.String()), zap.Error(err))
		}
	}

	return AuditLogResponse{
		ID:           l.ID.String(),
		ActorID:      l.ActorID.String,
		RequestID:    l.RequestID.String,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID.String,
		OldState:     oldState,
		NewState:     newState,
		ClientIP:     l.ClientIP.String,
		UserAgent:    l.UserAgent.String,
		CreatedAt:    l.CreatedAt.Time.Format("2006-01-02T15:04:05.000Z"),
	}
}

func parseCursor(s string) pgtype.Timestamptz {
	if s == "" {
		return pgtype.Timestamptz{Valid: false}
	}
	// Decode base64 cursor to timestamp
	t, err := decodeCursor(s)
	if err != nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
