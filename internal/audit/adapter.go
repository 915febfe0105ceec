package audit

import (
	"context"
	"fmt"
)

// Adapter is the extension point for new resource types: read-only,
// resource-specific snapshot access. Adapters own the mapping from the
// pipeline's normalized string ids to their native key type, and fold any
// audit-relevant associations (e.g. a role's permission ids) into the
// snapshot so the orchestrator stays schema-agnostic.
type Adapter interface {
	// Resource is the tag this adapter registers under.
	Resource() ResourceType

	// FetchOne returns the resource's current snapshot, or (nil, nil) when
	// it does not exist. Absence is a legitimate outcome, not an error.
	FetchOne(ctx context.Context, id string) (Snapshot, error)

	// FetchMany returns snapshots for the given ids, omitting ids that do
	// not exist. Implementations must de-duplicate input and batch into a
	// fixed number of queries regardless of input size. Empty input
	// returns an empty result without querying.
	FetchMany(ctx context.Context, ids []string) ([]Snapshot, error)
}

// NotRegisteredError reports an audit declaration naming a resource type no
// adapter was registered for. This is a wiring defect, not a runtime
// condition to recover from.
type NotRegisteredError struct {
	Resource ResourceType
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("audit: no adapter registered for resource type %q", e.Resource)
}

// Registry maps resource types to their adapters. Registration happens
// during single-threaded startup; resolution is a plain map read on the
// hot path, so no locking is carried.
type Registry struct {
	adapters map[ResourceType]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[ResourceType]Adapter)}
}

// Register stores the adapter under its declared resource type. A second
// registration for the same type replaces the first; last writer wins so
// tests can override production adapters.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Resource()] = a
}

// Resolve returns the adapter for the resource type, or a
// *NotRegisteredError when none exists.
func (r *Registry) Resolve(rt ResourceType) (Adapter, error) {
	a, ok := r.adapters[rt]
	if !ok {
		return nil, &NotRegisteredError{Resource: rt}
	}
	return a, nil
}
