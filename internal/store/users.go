package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// password_hash is intentionally absent from every select list here.
const userColumns = `id, email, name, status, created_at, updated_at`

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
}

const createUser = `
INSERT INTO users (email, name, password_hash)
VALUES ($1, $2, $3)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := scanUser(q.db.QueryRow(ctx, createUser, arg.Email, arg.Name, arg.PasswordHash), &u)
	return u, err
}

const getUser = `
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := scanUser(q.db.QueryRow(ctx, getUser, id), &u)
	return u, err
}

const getUsersByIDs = `
SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`

func (q *Queries) GetUsersByIDs(ctx context.Context, ids []string) ([]User, error) {
	rows, err := q.db.Query(ctx, getUsersByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type UpdateUserParams struct {
	ID     uuid.UUID
	Email  pgtype.Text
	Name   pgtype.Text
	Status pgtype.Text
}

const updateUser = `
UPDATE users
SET email = COALESCE($2, email),
    name = COALESCE($3, name),
    status = COALESCE($4, status),
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	var u User
	err := scanUser(q.db.QueryRow(ctx, updateUser, arg.ID, arg.Email, arg.Name, arg.Status), &u)
	return u, err
}

const deleteUser = `DELETE FROM users WHERE id = $1`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	ct, err := q.db.Exec(ctx, deleteUser, id)
	return ct.RowsAffected(), err
}

const getUserRoleIDs = `
SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`

func (q *Queries) GetUserRoleIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	rows, err := q.db.Query(ctx, getUserRoleIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

const getUserRoleIDsByUserIDs = `
SELECT user_id, role_id FROM user_roles
WHERE user_id = ANY($1::uuid[])
ORDER BY user_id, role_id`

func (q *Queries) GetUserRoleIDsByUserIDs(ctx context.Context, userIDs []string) ([]UserRoleRow, error) {
	rows, err := q.db.Query(ctx, getUserRoleIDsByUserIDs, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserRoleRow
	for rows.Next() {
		var ur UserRoleRow
		if err := rows.Scan(&ur.UserID, &ur.RoleID); err != nil {
			return nil, err
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

const deleteUserRoles = `DELETE FROM user_roles WHERE user_id = $1`

const insertUserRoles = `
INSERT INTO user_roles (user_id, role_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING`

// ReplaceUserRoles swaps the full assignment set. Same transaction shape
// as ReplaceRolePermissions; a single modifying CTE would drop roles
// present in both the old and new sets.
func (q *Queries) ReplaceUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []int64) error {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteUserRoles, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertUserRoles, userID, roleIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.Name, &u.Status, &u.CreatedAt, &u.UpdatedAt)
}
