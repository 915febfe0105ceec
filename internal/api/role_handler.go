package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/core"
	"github.com/calterra/adminaudit/internal/store"
)

type CreateRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type SetRolePermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

type BatchDeleteRolesRequest struct {
	IDs []int64 `json:"ids"`
}

type DeletedRole struct {
	ID int64 `json:"id"`
}

type BatchDeleteResult struct {
	IDs     []int64 `json:"ids"`
	Deleted int64   `json:"deleted"`
}

type RolePermissions struct {
	ID            int64   `json:"id"`
	PermissionIDs []int64 `json:"permission_ids"`
}

type RoleResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	PermissionIDs []int64 `json:"permission_ids,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ListRoles lists roles.
func (a *API) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r.URL.Query().Get("limit"), 50, 200)

	roles, err := a.queries.ListRoles(ctx, int32(limit))
	if err != nil {
		a.log.Error("list roles failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to list roles"))
		return
	}

	resp := make([]RoleResponse, len(roles))
	for i, role := range roles {
		resp[i] = roleToResponse(role, nil)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"roles": resp})
}

// GetRole gets a single role with its permission assignments.
func (a *API) GetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	role, err := a.queries.GetRole(ctx, id)
	if err != nil {
		WriteError(w, core.NewAppError(core.ErrNotFound, "role not found"))
		return
	}
	permIDs, err := a.queries.GetRolePermissionIDs(ctx, id)
	if err != nil {
		a.log.Error("get role permissions failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to load role"))
		return
	}
	WriteJSON(w, http.StatusOK, roleToResponse(role, permIDs))
}

// CreateRole creates a role. The audit record's resource id comes from the
// insert result.
func (a *API) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "name is required"))
		return
	}

	role, err := a.ops.createRole(r.Context(), req)
	if err != nil {
		if isUniqueViolation(err) {
			WriteError(w, core.NewAppError(core.ErrConflictExists, "role name already exists"))
			return
		}
		a.log.Error("create role failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to create role"))
		return
	}
	WriteJSON(w, http.StatusCreated, roleToResponse(role, nil))
}

// UpdateRole updates a role's own fields.
func (a *API) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoleID(w, r)
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}

	role, err := a.ops.updateRole(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, core.NewAppError(core.ErrNotFound, "role not found"))
			return
		}
		if isUniqueViolation(err) {
			WriteError(w, core.NewAppError(core.ErrConflictExists, "role name already exists"))
			return
		}
		a.log.Error("update role failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to update role"))
		return
	}
	WriteJSON(w, http.StatusOK, roleToResponse(role, nil))
}

// DeleteRole deletes a role.
func (a *API) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	deleted, err := a.ops.deleteRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, core.NewAppError(core.ErrNotFound, "role not found"))
			return
		}
		a.log.Error("delete role failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to delete role"))
		return
	}
	WriteJSON(w, http.StatusOK, deleted)
}

// BatchDeleteRoles deletes a set of roles, producing one audit record per
// id. An empty set is accepted and deletes nothing.
func (a *API) BatchDeleteRoles(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}

	result, err := a.ops.batchDeleteRoles(r.Context(), req.IDs)
	if err != nil {
		a.log.Error("batch delete roles failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to delete roles"))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// SetRolePermissions replaces a role's permission assignments.
func (a *API) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoleID(w, r)
	if !ok {
		return
	}
	var req SetRolePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}

	result, err := a.ops.setRolePermissions(r.Context(), id, req.PermissionIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, core.NewAppError(core.ErrNotFound, "role not found"))
			return
		}
		a.log.Error("set role permissions failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to set role permissions"))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func parseRoleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid role id"))
		return 0, false
	}
	return id, true
}

func roleToResponse(role store.Role, permIDs []int64) RoleResponse {
	return RoleResponse{
		ID:            role.ID,
		Name:          role.Name,
		Description:   role.Description.String,
		PermissionIDs: permIDs,
		CreatedAt:     formatTime(role.CreatedAt),
		UpdatedAt:     formatTime(role.UpdatedAt),
	}
}

func formatTime(t pgtype.Timestamptz) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("2006-01-02T15:04:05Z")
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textFromString(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func parseLimit(s string, defaultVal, maxVal int) int {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return defaultVal
	}
	if n > maxVal {
		return maxVal
	}
	return n
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
