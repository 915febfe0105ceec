package audit

// Action is the kind of state-changing operation being audited.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ResourceType tags which adapter knows how to snapshot a resource.
// Declaring these as typed constants keeps audit declarations and adapter
// registrations type-checked instead of open string dispatch.
type ResourceType string

const (
	ResourceRole       ResourceType = "role"
	ResourceUser       ResourceType = "user"
	ResourcePermission ResourceType = "permission"
)

// Snapshot is a resource's current representation as fetched by its
// adapter, including denormalized association ids. The SnapshotIDField key
// is the conventional identity field used to match batch snapshots back to
// their resource ids.
type Snapshot map[string]any

// SnapshotIDField is the conventional identity key on every Snapshot.
const SnapshotIDField = "id"

// Record is one finished audit trail entry, write-once. Nil pointer fields
// persist as NULLs. CreatedAt is assigned by the sink at persistence time,
// not here.
type Record struct {
	ActorID      *string
	RequestID    *string
	Action       Action
	ResourceType ResourceType
	ResourceID   *string
	OldState     any
	NewState     any
	ClientIP     *string
	UserAgent    *string
}
