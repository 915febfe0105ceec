package adapters

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/audit"
	"github.com/calterra/adminaudit/internal/requestctx"
	"github.com/calterra/adminaudit/internal/sink"
	"github.com/calterra/adminaudit/internal/store"
)

func TestAdaptersIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("adminaudit"),
		postgres.WithUsername("adminaudit"),
		postgres.WithPassword("adminaudit_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections"),
		),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	pool, err := store.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to connect: %s", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile("../../db/schema.sql")
	if err != nil {
		t.Fatalf("failed to read schema: %s", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %s", err)
	}

	q := store.New(pool)

	admin, err := q.CreateRole(ctx, store.CreateRoleParams{
		Name:        "admin",
		Description: pgtype.Text{String: "full access", Valid: true},
	})
	if err != nil {
		t.Fatalf("seed role: %s", err)
	}
	viewer, err := q.CreateRole(ctx, store.CreateRoleParams{Name: "viewer"})
	if err != nil {
		t.Fatalf("seed role: %s", err)
	}
	var permIDs []int64
	for _, code := range []string{"users.read", "users.write"} {
		p, err := q.CreatePermission(ctx, store.CreatePermissionParams{Code: code})
		if err != nil {
			t.Fatalf("seed permission: %s", err)
		}
		permIDs = append(permIDs, p.ID)
	}
	if err := q.ReplaceRolePermissions(ctx, admin.ID, permIDs); err != nil {
		t.Fatalf("seed role permissions: %s", err)
	}
	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Email:        "ops@example.com",
		Name:         "Ops",
		PasswordHash: "$2a$10$notarealhash",
	})
	if err != nil {
		t.Fatalf("seed user: %s", err)
	}
	if err := q.ReplaceUserRoles(ctx, user.ID, []int64{admin.ID}); err != nil {
		t.Fatalf("seed user roles: %s", err)
	}

	roleAdapter := NewRole(q)
	userAdapter := NewUser(q)
	adminID := strconv.FormatInt(admin.ID, 10)
	viewerID := strconv.FormatInt(viewer.ID, 10)

	t.Run("RoleFetchOne", func(t *testing.T) {
		snap, err := roleAdapter.FetchOne(ctx, adminID)
		if err != nil {
			t.Fatalf("FetchOne: %s", err)
		}
		if snap[audit.SnapshotIDField] != admin.ID {
			t.Errorf("id = %v", snap[audit.SnapshotIDField])
		}
		if snap["name"] != "admin" || snap["description"] != "full access" {
			t.Errorf("core fields wrong: %v", snap)
		}
		perms := snap["permission_ids"].([]int64)
		if len(perms) != 2 {
			t.Errorf("permission_ids = %v", perms)
		}
	})

	t.Run("RoleFetchOneAbsent", func(t *testing.T) {
		for _, id := range []string{"999999", "not-a-number"} {
			snap, err := roleAdapter.FetchOne(ctx, id)
			if err != nil {
				t.Fatalf("FetchOne(%q): %s", id, err)
			}
			if snap != nil {
				t.Errorf("expected nil snapshot for %q, got %v", id, snap)
			}
		}
	})

	t.Run("RoleFetchMany", func(t *testing.T) {
		snaps, err := roleAdapter.FetchMany(ctx, []string{adminID, viewerID, adminID, "999999", "junk"})
		if err != nil {
			t.Fatalf("FetchMany: %s", err)
		}
		if len(snaps) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(snaps))
		}
		byID := map[int64]audit.Snapshot{}
		for _, s := range snaps {
			byID[s[audit.SnapshotIDField].(int64)] = s
		}
		if got := byID[admin.ID]["permission_ids"].([]int64); len(got) != 2 {
			t.Errorf("admin permission_ids = %v", got)
		}
		// Roles without assignments still carry an empty set, not nil.
		if got := byID[viewer.ID]["permission_ids"].([]int64); got == nil || len(got) != 0 {
			t.Errorf("viewer permission_ids = %v", got)
		}
	})

	t.Run("RoleFetchManyEmpty", func(t *testing.T) {
		snaps, err := roleAdapter.FetchMany(ctx, nil)
		if err != nil || len(snaps) != 0 {
			t.Errorf("expected empty result, got %v err=%v", snaps, err)
		}
	})

	t.Run("UserFetchOne", func(t *testing.T) {
		snap, err := userAdapter.FetchOne(ctx, user.ID.String())
		if err != nil {
			t.Fatalf("FetchOne: %s", err)
		}
		if snap["email"] != "ops@example.com" || snap["status"] != "active" {
			t.Errorf("core fields wrong: %v", snap)
		}
		if got := snap["role_ids"].([]int64); len(got) != 1 || got[0] != admin.ID {
			t.Errorf("role_ids = %v", got)
		}
		if _, leaked := snap["password_hash"]; leaked {
			t.Error("password hash leaked into snapshot")
		}
	})

	t.Run("UserFetchOneAbsent", func(t *testing.T) {
		for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
			snap, err := userAdapter.FetchOne(ctx, id)
			if err != nil {
				t.Fatalf("FetchOne(%q): %s", id, err)
			}
			if snap != nil {
				t.Errorf("expected nil snapshot for %q, got %v", id, snap)
			}
		}
	})

	t.Run("UserFetchManyDedupesCaseVariants", func(t *testing.T) {
		upper := strings.ToUpper(user.ID.String())
		snaps, err := userAdapter.FetchMany(ctx, []string{user.ID.String(), upper})
		if err != nil {
			t.Fatalf("FetchMany: %s", err)
		}
		if len(snaps) != 1 {
			t.Errorf("expected 1 snapshot after uuid dedupe, got %d", len(snaps))
		}
	})

	t.Run("EndToEndCapture", func(t *testing.T) {
		registry := audit.NewRegistry()
		registry.Register(roleAdapter)
		registry.Register(userAdapter)
		dispatcher := audit.NewDispatcher(sink.NewPostgres(q), 16, zap.NewNop())
		capturer := audit.NewCapturer(registry, dispatcher, zap.NewNop())

		updateRole := audit.Wrap2(capturer,
			audit.Options{Action: audit.ActionUpdate, Resource: audit.ResourceRole, ID: audit.IDFromArg(0)},
			func(ctx context.Context, id int64, name string) (store.Role, error) {
				return q.UpdateRole(ctx, store.UpdateRoleParams{
					ID:   id,
					Name: pgtype.Text{String: name, Valid: true},
				})
			})

		reqCtx := requestctx.WithRequestID(ctx, "req-e2e")
		reqCtx = requestctx.WithActorID(reqCtx, "admin-0")
		updated, err := updateRole(reqCtx, admin.ID, "root")
		if err != nil {
			t.Fatalf("audited update: %s", err)
		}
		if updated.Name != "root" {
			t.Errorf("operation result altered: %+v", updated)
		}
		dispatcher.Stop()

		logs, err := q.ListAuditLogs(ctx, store.ListAuditLogsParams{
			RequestID: pgtype.Text{String: "req-e2e", Valid: true},
			Limit:     10,
		})
		if err != nil {
			t.Fatalf("ListAuditLogs: %s", err)
		}
		if len(logs) != 1 {
			t.Fatalf("expected 1 audit log, got %d", len(logs))
		}
		rec := logs[0]
		if rec.Action != "UPDATE" || rec.ResourceType != "role" || rec.ResourceID.String != adminID {
			t.Errorf("unexpected record: %+v", rec)
		}
		if rec.ActorID.String != "admin-0" {
			t.Errorf("actor not persisted: %+v", rec.ActorID)
		}
		var oldState map[string]any
		if err := json.Unmarshal(rec.OldState, &oldState); err != nil {
			t.Fatalf("old state not json: %s", err)
		}
		if oldState["name"] != "admin" {
			t.Errorf("old state observed the mutation: %v", oldState["name"])
		}
		var newState map[string]any
		if err := json.Unmarshal(rec.NewState, &newState); err != nil {
			t.Fatalf("new state not json: %s", err)
		}
		if newState["Name"] != "root" && newState["name"] != "root" {
			t.Errorf("new state missing updated name: %v", newState)
		}
	})
}
