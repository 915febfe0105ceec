// Package sink persists finished audit records. The Postgres sink is the
// production Log Sink: single inserts for ordinary records, one batched
// round trip with conflict skipping for batch operations.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/calterra/adminaudit/internal/audit"
	"github.com/calterra/adminaudit/internal/observability"
	"github.com/calterra/adminaudit/internal/store"
)

type Postgres struct {
	queries *store.Queries
}

func NewPostgres(queries *store.Queries) *Postgres {
	return &Postgres{queries: queries}
}

func (s *Postgres) CreateAuditLog(ctx context.Context, rec audit.Record) error {
	start := time.Now()
	defer func() {
		observability.SinkWriteDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())
	}()

	arg, err := toParams(rec)
	if err != nil {
		return err
	}
	if _, err := s.queries.InsertAuditLog(ctx, arg); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *Postgres) CreateAuditLogBatch(ctx context.Context, recs []audit.Record, skipDuplicates bool) error {
	if len(recs) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		observability.SinkWriteDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	}()

	args := make([]store.InsertAuditLogParams, 0, len(recs))
	for _, rec := range recs {
		arg, err := toParams(rec)
		if err != nil {
			return err
		}
		args = append(args, arg)
	}
	if _, err := s.queries.InsertAuditLogBatch(ctx, args, skipDuplicates); err != nil {
		return fmt.Errorf("insert audit log batch: %w", err)
	}
	return nil
}

func toParams(rec audit.Record) (store.InsertAuditLogParams, error) {
	oldState, err := marshalState(rec.OldState)
	if err != nil {
		return store.InsertAuditLogParams{}, fmt.Errorf("marshal old state: %w", err)
	}
	newState, err := marshalState(rec.NewState)
	if err != nil {
		return store.InsertAuditLogParams{}, fmt.Errorf("marshal new state: %w", err)
	}
	return store.InsertAuditLogParams{
		ActorID:      textFromPtr(rec.ActorID),
		RequestID:    textFromPtr(rec.RequestID),
		Action:       string(rec.Action),
		ResourceType: string(rec.ResourceType),
		ResourceID:   textFromPtr(rec.ResourceID),
		OldState:     oldState,
		NewState:     newState,
		ClientIP:     textFromPtr(rec.ClientIP),
		UserAgent:    textFromPtr(rec.UserAgent),
	}, nil
}

func marshalState(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
