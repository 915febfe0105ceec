package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/calterra/adminaudit/internal/audit"
	"github.com/calterra/adminaudit/internal/store"
)

// User snapshots a user's core fields plus assigned role ids under
// role_ids. The password hash never enters a snapshot.
type User struct {
	queries *store.Queries
}

func NewUser(queries *store.Queries) *User {
	return &User{queries: queries}
}

func (a *User) Resource() audit.ResourceType {
	return audit.ResourceUser
}

func (a *User) FetchOne(ctx context.Context, id string) (audit.Snapshot, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	user, err := a.queries.GetUser(ctx, uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	roleIDs, err := a.queries.GetUserRoleIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	return userSnapshot(user, roleIDs), nil
}

func (a *User) FetchMany(ctx context.Context, ids []string) ([]audit.Snapshot, error) {
	uids := dedupeUserIDs(ids)
	if len(uids) == 0 {
		return nil, nil
	}

	users, err := a.queries.GetUsersByIDs(ctx, uids)
	if err != nil {
		return nil, err
	}
	assignments, err := a.queries.GetUserRoleIDsByUserIDs(ctx, uids)
	if err != nil {
		return nil, err
	}

	rolesByUser := make(map[uuid.UUID][]int64, len(users))
	for _, ur := range assignments {
		rolesByUser[ur.UserID] = append(rolesByUser[ur.UserID], ur.RoleID)
	}

	snaps := make([]audit.Snapshot, 0, len(users))
	for _, user := range users {
		snaps = append(snaps, userSnapshot(user, rolesByUser[user.ID]))
	}
	return snaps, nil
}

func userSnapshot(user store.User, roleIDs []int64) audit.Snapshot {
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	snap := audit.Snapshot{
		audit.SnapshotIDField: user.ID.String(),
		"email":               user.Email,
		"name":                user.Name,
		"status":              user.Status,
		"role_ids":            roleIDs,
	}
	if user.CreatedAt.Valid {
		snap["created_at"] = user.CreatedAt.Time
	}
	if user.UpdatedAt.Valid {
		snap["updated_at"] = user.UpdatedAt.Time
	}
	return snap
}

// dedupeUserIDs normalizes uuid ids to their canonical string form so
// upper/lower case variants of the same uuid collapse to one lookup.
func dedupeUserIDs(ids []string) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		uid, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid.String())
	}
	return out
}
