package api

import (
	"encoding/base64"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/api/middleware"
	"github.com/calterra/adminaudit/internal/audit"
	"github.com/calterra/adminaudit/internal/store"
)

type API struct {
	pool    *pgxpool.Pool
	queries *store.Queries
	log     *zap.Logger
	ops     ops
}

func NewAPI(pool *pgxpool.Pool, capturer *audit.Capturer, log *zap.Logger) *API {
	a := &API{
		pool:    pool,
		queries: store.New(pool),
		log:     log,
	}
	a.ops = a.buildOps(capturer)
	return a
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestMeta)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Logger)
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Health endpoints
	r.Get("/healthz", a.HealthHandler)
	r.Get("/readyz", a.ReadyHandler)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Roles
		r.Get("/roles", a.ListRoles)
		r.Post("/roles", a.CreateRole)
		r.Get("/roles/{id}", a.GetRole)
		r.Patch("/roles/{id}", a.UpdateRole)
		r.Delete("/roles/{id}", a.DeleteRole)
		r.Put("/roles/{id}/permissions", a.SetRolePermissions)
		r.Post("/roles:batch-delete", a.BatchDeleteRoles)

		// Permissions
		r.Post("/permissions", a.CreatePermission)

		// Users
		r.Post("/users", a.CreateUser)
		r.Get("/users/{id}", a.GetUser)
		r.Patch("/users/{id}", a.UpdateUser)
		r.Delete("/users/{id}", a.DeleteUser)

		// Audit trail
		r.Get("/audit-logs", a.ListAuditLogs)
		r.Get("/audit-logs/{id}", a.GetAuditLog)
	})

	return r
}

// encodeCursor encodes a timestamp as a base64 cursor.
func encodeCursor(t pgtype.Timestamptz) string {
	if !t.Valid {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(t.Time.Format(time.RFC3339Nano)))
}

// decodeCursor decodes a base64 cursor to a timestamp.
func decodeCursor(s string) (time.Time, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, string(b))
}
