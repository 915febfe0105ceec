package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const auditLogColumns = `id, actor_id, request_id, action, resource_type, resource_id, old_state, new_state, client_ip, user_agent, created_at`

type InsertAuditLogParams struct {
	ActorID      pgtype.Text
	RequestID    pgtype.Text
	Action       string
	ResourceType string
	ResourceID   pgtype.Text
	OldState     []byte
	NewState     []byte
	ClientIP     pgtype.Text
	UserAgent    pgtype.Text
}

// Dedupe policy: within one request, a second record for the same
// (resource, action) tuple is an exact duplicate and is skipped, on the
// single-insert path as well as the batch path. NULL request ids never
// conflict, so system-triggered records are always kept.
const insertAuditLog = `
INSERT INTO audit_logs (actor_id, request_id, action, resource_type, resource_id, old_state, new_state, client_ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (request_id, resource_type, resource_id, action) DO NOTHING
RETURNING ` + auditLogColumns

// InsertAuditLog writes one record. A policy duplicate is skipped and
// returns a zero AuditLog with no error; only storage failures error.
func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, insertAuditLog,
		arg.ActorID, arg.RequestID, arg.Action, arg.ResourceType, arg.ResourceID,
		arg.OldState, arg.NewState, arg.ClientIP, arg.UserAgent,
	)
	var a AuditLog
	err := scanAuditLog(row, &a)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuditLog{}, nil
	}
	return a, err
}

const insertAuditLogNoReturn = `
INSERT INTO audit_logs (actor_id, request_id, action, resource_type, resource_id, old_state, new_state, client_ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertAuditLogSkipDup = insertAuditLogNoReturn + `
ON CONFLICT (request_id, resource_type, resource_id, action) DO NOTHING`

// InsertAuditLogBatch inserts a set of records in one round trip and
// returns the number of rows actually written.
func (q *Queries) InsertAuditLogBatch(ctx context.Context, args []InsertAuditLogParams, skipDuplicates bool) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	sql := insertAuditLogNoReturn
	if skipDuplicates {
		sql = insertAuditLogSkipDup
	}
	b := &pgx.Batch{}
	for _, arg := range args {
		b.Queue(sql,
			arg.ActorID, arg.RequestID, arg.Action, arg.ResourceType, arg.ResourceID,
			arg.OldState, arg.NewState, arg.ClientIP, arg.UserAgent,
		)
	}
	br := q.db.SendBatch(ctx, b)
	defer br.Close()

	var inserted int64
	for range args {
		ct, err := br.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += ct.RowsAffected()
	}
	return inserted, nil
}

const getAuditLog = `
SELECT ` + auditLogColumns + ` FROM audit_logs WHERE id = $1`

func (q *Queries) GetAuditLog(ctx context.Context, id uuid.UUID) (AuditLog, error) {
	var a AuditLog
	err := scanAuditLog(q.db.QueryRow(ctx, getAuditLog, id), &a)
	return a, err
}

type ListAuditLogsParams struct {
	ResourceType pgtype.Text
	ResourceID   pgtype.Text
	Action       pgtype.Text
	ActorID      pgtype.Text
	RequestID    pgtype.Text
	Cursor       pgtype.Timestamptz
	Limit        int32
}

const listAuditLogs = `
SELECT ` + auditLogColumns + ` FROM audit_logs
WHERE ($1::text IS NULL OR resource_type = $1)
  AND ($2::text IS NULL OR resource_id = $2)
  AND ($3::text IS NULL OR action = $3)
  AND ($4::text IS NULL OR actor_id = $4)
  AND ($5::text IS NULL OR request_id = $5)
  AND ($6::timestamptz IS NULL OR created_at < $6)
ORDER BY created_at DESC
LIMIT $7`

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs,
		arg.ResourceType, arg.ResourceID, arg.Action, arg.ActorID, arg.RequestID,
		arg.Cursor, arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := scanAuditLog(rows, &a); err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

func scanAuditLog(row pgx.Row, a *AuditLog) error {
	return row.Scan(
		&a.ID, &a.ActorID, &a.RequestID, &a.Action, &a.ResourceType, &a.ResourceID,
		&a.OldState, &a.NewState, &a.ClientIP, &a.UserAgent, &a.CreatedAt,
	)
}
