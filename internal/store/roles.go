package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const roleColumns = `id, name, description, created_at, updated_at`

type CreateRoleParams struct {
	Name        string
	Description pgtype.Text
}

const createRole = `
INSERT INTO roles (name, description)
VALUES ($1, $2)
RETURNING ` + roleColumns

func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	var r Role
	err := scanRole(q.db.QueryRow(ctx, createRole, arg.Name, arg.Description), &r)
	return r, err
}

const getRole = `
SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

func (q *Queries) GetRole(ctx context.Context, id int64) (Role, error) {
	var r Role
	err := scanRole(q.db.QueryRow(ctx, getRole, id), &r)
	return r, err
}

const getRolesByIDs = `
SELECT ` + roleColumns + ` FROM roles WHERE id = ANY($1::bigint[])`

func (q *Queries) GetRolesByIDs(ctx context.Context, ids []int64) ([]Role, error) {
	rows, err := q.db.Query(ctx, getRolesByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := scanRole(rows, &r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

const listRoles = `
SELECT ` + roleColumns + ` FROM roles ORDER BY id LIMIT $1`

func (q *Queries) ListRoles(ctx context.Context, limit int32) ([]Role, error) {
	rows, err := q.db.Query(ctx, listRoles, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := scanRole(rows, &r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

type UpdateRoleParams struct {
	ID          int64
	Name        pgtype.Text
	Description pgtype.Text
}

const updateRole = `
UPDATE roles
SET name = COALESCE($2, name),
    description = COALESCE($3, description),
    updated_at = now()
WHERE id = $1
RETURNING ` + roleColumns

func (q *Queries) UpdateRole(ctx context.Context, arg UpdateRoleParams) (Role, error) {
	var r Role
	err := scanRole(q.db.QueryRow(ctx, updateRole, arg.ID, arg.Name, arg.Description), &r)
	return r, err
}

const deleteRole = `DELETE FROM roles WHERE id = $1`

func (q *Queries) DeleteRole(ctx context.Context, id int64) (int64, error) {
	ct, err := q.db.Exec(ctx, deleteRole, id)
	return ct.RowsAffected(), err
}

const deleteRoles = `DELETE FROM roles WHERE id = ANY($1::bigint[])`

func (q *Queries) DeleteRoles(ctx context.Context, ids []int64) (int64, error) {
	ct, err := q.db.Exec(ctx, deleteRoles, ids)
	return ct.RowsAffected(), err
}

const getRolePermissionIDs = `
SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`

func (q *Queries) GetRolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, getRolePermissionIDs, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

const getRolePermissionIDsByRoleIDs = `
SELECT role_id, permission_id FROM role_permissions
WHERE role_id = ANY($1::bigint[])
ORDER BY role_id, permission_id`

func (q *Queries) GetRolePermissionIDsByRoleIDs(ctx context.Context, roleIDs []int64) ([]RolePermissionRow, error) {
	rows, err := q.db.Query(ctx, getRolePermissionIDsByRoleIDs, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RolePermissionRow
	for rows.Next() {
		var rp RolePermissionRow
		if err := rows.Scan(&rp.RoleID, &rp.PermissionID); err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

const deleteRolePermissions = `DELETE FROM role_permissions WHERE role_id = $1`

const insertRolePermissions = `
INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING`

// ReplaceRolePermissions swaps the full assignment set. Delete and insert
// must be separate statements in one transaction: a single data-modifying
// CTE evaluates the insert's conflict check against the pre-delete
// snapshot, which loses ids present in both the old and new sets.
func (q *Queries) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteRolePermissions, roleID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertRolePermissions, roleID, permissionIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type CreatePermissionParams struct {
	Code        string
	Description pgtype.Text
}

const createPermission = `
INSERT INTO permissions (code, description)
VALUES ($1, $2)
RETURNING id, code, description`

func (q *Queries) CreatePermission(ctx context.Context, arg CreatePermissionParams) (Permission, error) {
	var p Permission
	err := q.db.QueryRow(ctx, createPermission, arg.Code, arg.Description).
		Scan(&p.ID, &p.Code, &p.Description)
	return p, err
}

func scanRole(row pgx.Row, r *Role) error {
	return row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
}

func collectIDs(rows pgx.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
