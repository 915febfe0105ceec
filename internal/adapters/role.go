// Package adapters provides the resource-specific snapshot fetchers the
// capture pipeline resolves through its registry. Each adapter reads core
// fields plus audit-relevant associations and nothing else.
package adapters

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/calterra/adminaudit/internal/audit"
	"github.com/calterra/adminaudit/internal/store"
)

// Role snapshots a role with its assigned permission ids folded in under
// permission_ids.
type Role struct {
	queries *store.Queries
}

func NewRole(queries *store.Queries) *Role {
	return &Role{queries: queries}
}

func (a *Role) Resource() audit.ResourceType {
	return audit.ResourceRole
}

func (a *Role) FetchOne(ctx context.Context, id string) (audit.Snapshot, error) {
	rid, ok := parseRoleID(id)
	if !ok {
		// A non-numeric id cannot name an existing role.
		return nil, nil
	}
	role, err := a.queries.GetRole(ctx, rid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	permIDs, err := a.queries.GetRolePermissionIDs(ctx, rid)
	if err != nil {
		return nil, err
	}
	return roleSnapshot(role, permIDs), nil
}

func (a *Role) FetchMany(ctx context.Context, ids []string) ([]audit.Snapshot, error) {
	rids := dedupeRoleIDs(ids)
	if len(rids) == 0 {
		return nil, nil
	}

	roles, err := a.queries.GetRolesByIDs(ctx, rids)
	if err != nil {
		return nil, err
	}
	assignments, err := a.queries.GetRolePermissionIDsByRoleIDs(ctx, rids)
	if err != nil {
		return nil, err
	}

	permsByRole := make(map[int64][]int64, len(roles))
	for _, rp := range assignments {
		permsByRole[rp.RoleID] = append(permsByRole[rp.RoleID], rp.PermissionID)
	}

	snaps := make([]audit.Snapshot, 0, len(roles))
	for _, role := range roles {
		snaps = append(snaps, roleSnapshot(role, permsByRole[role.ID]))
	}
	return snaps, nil
}

func roleSnapshot(role store.Role, permIDs []int64) audit.Snapshot {
	if permIDs == nil {
		permIDs = []int64{}
	}
	snap := audit.Snapshot{
		audit.SnapshotIDField: role.ID,
		"name":                role.Name,
		"permission_ids":      permIDs,
	}
	if role.Description.Valid {
		snap["description"] = role.Description.String
	}
	if role.CreatedAt.Valid {
		snap["created_at"] = role.CreatedAt.Time
	}
	if role.UpdatedAt.Valid {
		snap["updated_at"] = role.UpdatedAt.Time
	}
	return snap
}

func parseRoleID(id string) (int64, bool) {
	rid, err := strconv.ParseInt(id, 10, 64)
	return rid, err == nil
}

// dedupeRoleIDs normalizes string ids to the native key type and collapses
// duplicates, so "1" and "01" land on the same row once.
func dedupeRoleIDs(ids []string) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		rid, ok := parseRoleID(id)
		if !ok {
			continue
		}
		if _, dup := seen[rid]; dup {
			continue
		}
		seen[rid] = struct{}{}
		out = append(out, rid)
	}
	return out
}
