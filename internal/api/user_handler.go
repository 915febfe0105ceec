package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/core"
	"github.com/calterra/adminaudit/internal/store"
)

type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Email  *string `json:"email"`
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

type DeleteUserRequest struct {
	ID uuid.UUID `json:"id"`
}

type DeletedUser struct {
	ID string `json:"id"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	RoleIDs   []int64 `json:"role_ids,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// GetUser gets a single user with its role assignments.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	user, err := a.queries.GetUser(ctx, id)
	if err != nil {
		WriteError(w, core.NewAppError(core.ErrNotFound, "user not found"))
		return
	}
	roleIDs, err := a.queries.GetUserRoleIDs(ctx, id)
	if err != nil {
		a.log.Error("get user roles failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to load user"))
		return
	}
	WriteJSON(w, http.StatusOK, userToResponse(user, roleIDs))
}

// CreateUser creates a user.
func (a *API) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "email, name and password are required"))
		return
	}

	user, err := a.ops.createUser(r.Context(), req)
	if err != nil {
		if isUniqueViolation(err) {
			WriteError(w, core.NewAppError(core.ErrConflictExists, "email already exists"))
			return
		}
		a.log.Error("create user failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to create user"))
		return
	}
	WriteJSON(w, http.StatusCreated, userToResponse(user, nil))
}

// UpdateUser updates a user's own fields.
func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}

	user, err := a.ops.updateUser(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, core.NewAppError(core.ErrNotFound, "user not found"))
			return
		}
		if isUniqueViolation(err) {
			WriteError(w, core.NewAppError(core.ErrConflictExists, "email already exists"))
			return
		}
		a.log.Error("update user failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to update user"))
		return
	}
	WriteJSON(w, http.StatusOK, userToResponse(user, nil))
}

// DeleteUser deletes a user.
func (a *API) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	deleted, err := a.ops.deleteUser(r.Context(), DeleteUserRequest{ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, core.NewAppError(core.ErrNotFound, "user not found"))
			return
		}
		a.log.Error("delete user failed", zap.Error(err))
		WriteError(w, core.NewAppError(core.ErrInternal, "failed to delete user"))
		return
	}
	WriteJSON(w, http.StatusOK, deleted)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid user id"))
		return uuid.Nil, false
	}
	return id, true
}

func userToResponse(user store.User, roleIDs []int64) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Status:    user.Status,
		RoleIDs:   roleIDs,
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
	}
}
