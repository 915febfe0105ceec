package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/calterra/adminaudit/internal/audit"
	"github.com/calterra/adminaudit/internal/requestctx"
	"github.com/calterra/adminaudit/internal/store"
)

// ops holds the mutating operations with audit capture already applied.
// Handlers call these instead of the raw queries so every mutation runs
// through the same pipeline.
type ops struct {
	createRole         func(ctx context.Context, req CreateRoleRequest) (store.Role, error)
	updateRole         func(ctx context.Context, id int64, req UpdateRoleRequest) (store.Role, error)
	deleteRole         func(ctx context.Context, id int64) (DeletedRole, error)
	batchDeleteRoles   func(ctx context.Context, ids []int64) (BatchDeleteResult, error)
	setRolePermissions func(ctx context.Context, id int64, permissionIDs []int64) (RolePermissions, error)
	createPermission   func(ctx context.Context, req CreatePermissionRequest) (store.Permission, error)
	createUser         func(ctx context.Context, req CreateUserRequest) (store.User, error)
	updateUser         func(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (store.User, error)
	deleteUser         func(ctx context.Context, req DeleteUserRequest) (DeletedUser, error)
}

func (a *API) buildOps(c *audit.Capturer) ops {
	return ops{
		createRole: audit.Wrap1(c, audit.Options{
			Action:   audit.ActionCreate,
			Resource: audit.ResourceRole,
			ID:       audit.IDFromResult("id"),
		}, a.doCreateRole),

		updateRole: audit.Wrap2(c, audit.Options{
			Action:   audit.ActionUpdate,
			Resource: audit.ResourceRole,
			ID:       audit.IDFromArg(0),
			// A request that names no fields changes nothing; keep the
			// trail free of no-op entries.
			Include: func(args []any, _ any, _ requestctx.Meta) (bool, error) {
				req, ok := args[1].(UpdateRoleRequest)
				if !ok {
					return false, fmt.Errorf("unexpected argument type %T", args[1])
				}
				return req.Name != nil || req.Description != nil, nil
			},
		}, a.doUpdateRole),

		deleteRole: audit.Wrap1(c, audit.Options{
			Action:   audit.ActionDelete,
			Resource: audit.ResourceRole,
			ID:       audit.IDFromArg(0),
		}, a.doDeleteRole),

		batchDeleteRoles: audit.Wrap1(c, audit.Options{
			Action:   audit.ActionDelete,
			Resource: audit.ResourceRole,
			ID:       audit.IDFromArg(0),
			Batch:    true,
		}, a.doBatchDeleteRoles),

		setRolePermissions: audit.Wrap2(c, audit.Options{
			Action:   audit.ActionUpdate,
			Resource: audit.ResourceRole,
			ID:       audit.IDFromArg(0),
		}, a.doSetRolePermissions),

		createPermission: audit.Wrap1(c, audit.Options{
			Action:   audit.ActionCreate,
			Resource: audit.ResourcePermission,
			ID:       audit.IDFromResult("id"),
		}, a.doCreatePermission),

		createUser: audit.Wrap1(c, audit.Options{
			Action:   audit.ActionCreate,
			Resource: audit.ResourceUser,
			ID:       audit.IDFromResult("id"),
		}, a.doCreateUser),

		updateUser: audit.Wrap2(c, audit.Options{
			Action:   audit.ActionUpdate,
			Resource: audit.ResourceUser,
			ID:       audit.IDFromArg(0),
		}, a.doUpdateUser),

		deleteUser: audit.Wrap1(c, audit.Options{
			Action:   audit.ActionDelete,
			Resource: audit.ResourceUser,
			ID:       audit.IDFromArgPath("id"),
		}, a.doDeleteUser),
	}
}

func (a *API) doCreateRole(ctx context.Context, req CreateRoleRequest) (store.Role, error) {
	return a.queries.CreateRole(ctx, store.CreateRoleParams{
		Name:        req.Name,
		Description: textFromPtr(req.Description),
	})
}

func (a *API) doUpdateRole(ctx context.Context, id int64, req UpdateRoleRequest) (store.Role, error) {
	return a.queries.UpdateRole(ctx, store.UpdateRoleParams{
		ID:          id,
		Name:        textFromPtr(req.Name),
		Description: textFromPtr(req.Description),
	})
}

func (a *API) doDeleteRole(ctx context.Context, id int64) (DeletedRole, error) {
	n, err := a.queries.DeleteRole(ctx, id)
	if err != nil {
		return DeletedRole{}, err
	}
	if n == 0 {
		return DeletedRole{}, pgx.ErrNoRows
	}
	return DeletedRole{ID: id}, nil
}

func (a *API) doBatchDeleteRoles(ctx context.Context, ids []int64) (BatchDeleteResult, error) {
	n, err := a.queries.DeleteRoles(ctx, ids)
	if err != nil {
		return BatchDeleteResult{}, err
	}
	return BatchDeleteResult{IDs: ids, Deleted: n}, nil
}

func (a *API) doSetRolePermissions(ctx context.Context, id int64, permissionIDs []int64) (RolePermissions, error) {
	if _, err := a.queries.GetRole(ctx, id); err != nil {
		return RolePermissions{}, err
	}
	if err := a.queries.ReplaceRolePermissions(ctx, id, permissionIDs); err != nil {
		return RolePermissions{}, err
	}
	assigned, err := a.queries.GetRolePermissionIDs(ctx, id)
	if err != nil {
		return RolePermissions{}, err
	}
	if assigned == nil {
		assigned = []int64{}
	}
	return RolePermissions{ID: id, PermissionIDs: assigned}, nil
}

func (a *API) doCreatePermission(ctx context.Context, req CreatePermissionRequest) (store.Permission, error) {
	return a.queries.CreatePermission(ctx, store.CreatePermissionParams{
		Code:        req.Code,
		Description: textFromPtr(req.Description),
	})
}

func (a *API) doCreateUser(ctx context.Context, req CreateUserRequest) (store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	return a.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	})
}

func (a *API) doUpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (store.User, error) {
	return a.queries.UpdateUser(ctx, store.UpdateUserParams{
		ID:     id,
		Email:  textFromPtr(req.Email),
		Name:   textFromPtr(req.Name),
		Status: textFromPtr(req.Status),
	})
}

func (a *API) doDeleteUser(ctx context.Context, req DeleteUserRequest) (DeletedUser, error) {
	n, err := a.queries.DeleteUser(ctx, req.ID)
	if err != nil {
		return DeletedUser{}, err
	}
	if n == 0 {
		return DeletedUser{}, pgx.ErrNoRows
	}
	return DeletedUser{ID: req.ID.String()}, nil
}
