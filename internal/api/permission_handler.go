package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/core"
)

type CreatePermissionRequest struct {
	Code        string  `json:"code"`
	Description *string `json:"description"`
}

type PermissionResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// CreatePermission creates a permission.
func (a *API) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}
	if req.Code == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "code is required"))
		return
	}

	perm, err := a.ops.createPermission(r.Context(), req)
	if err != nil {
		if isUniqueViolation(err) {
			WriteError(w, core.NewAppError(core.ErrConflictExists, "permission code already exists"))
			return
		}
		a.log.Error("create permission failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to create permission"))
		return
	}
	WriteJSON(w, http.StatusCreated, PermissionResponse{
		ID:          perm.ID,
		Code:        perm.Code,
		Description: perm.Description.String,
	})
}
