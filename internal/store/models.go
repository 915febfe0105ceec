package store

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLog struct {
	ID           uuid.UUID
	ActorID      pgtype.Text
	RequestID    pgtype.Text
	Action       string
	ResourceType string
	ResourceID   pgtype.Text
	OldState     []byte
	NewState     []byte
	ClientIP     pgtype.Text
	UserAgent    pgtype.Text
	CreatedAt    pgtype.Timestamptz
}

type Role struct {
	ID          int64
	Name        string
	Description pgtype.Text
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Permission struct {
	ID          int64
	Code        string
	Description pgtype.Text
}

// User deliberately excludes password_hash; audit snapshots and API
// responses must never carry it.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Status    string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type RolePermissionRow struct {
	RoleID       int64
	PermissionID int64
}

type UserRoleRow struct {
	UserID uuid.UUID
	RoleID int64
}
