// Package audit implements the audit-capture pipeline: it wraps a business
// operation, snapshots the affected resource's state before the mutation,
// runs the operation, and dispatches an immutable change record without
// ever blocking or failing the caller on audit concerns.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/observability"
	"github.com/calterra/adminaudit/internal/requestctx"
)

// Capturer orchestrates before/after capture around audited operations.
// It holds no per-invocation state; concurrent invocations are independent.
type Capturer struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        *zap.Logger
}

func NewCapturer(registry *Registry, dispatcher *Dispatcher, log *zap.Logger) *Capturer {
	return &Capturer{registry: registry, dispatcher: dispatcher, log: log}
}

// prior holds the outcome of the pre-call capture. known distinguishes "we
// looked and the resource was absent" from "capture failed, state unknown";
// both persist as NULL but only the latter is a capture failure.
type prior struct {
	known bool
	one   Snapshot
	many  []Snapshot
}

// Do runs fn under audit per opts. The sequence is strict: prior state is
// captured before fn runs, fn's error (if any) propagates unchanged with no
// record produced, and record dispatch is fire-and-forget after fn
// completes. fn's result is always returned to the caller exactly as fn
// produced it.
func (c *Capturer) Do(ctx context.Context, opts Options, args []any, fn Operation) (any, error) {
	preID, havePre := opts.ID.resolvePre(args)

	var before prior
	if havePre {
		before = c.captureBefore(ctx, opts, preID)
	}

	result, err := fn(ctx)
	if err != nil {
		// Only completed operations are audited.
		return nil, err
	}

	finalID, haveID := preID, havePre
	if !haveID {
		finalID, haveID = opts.ID.resolvePost(result)
	}

	if !c.include(opts, args, result, ctx) {
		return result, nil
	}

	meta := requestctx.FromContext(ctx)
	if opts.Batch {
		c.dispatcher.SubmitBatch(c.batchRecords(opts, meta, finalID, before, result))
	} else {
		c.dispatcher.Submit(c.singleRecord(opts, meta, finalID, haveID, before, result))
	}
	return result, nil
}

// captureBefore fetches prior state synchronously so the snapshot cannot
// observe the mutation. Any failure here degrades to unknown prior state;
// it never reaches the business caller.
func (c *Capturer) captureBefore(ctx context.Context, opts Options, id any) prior {
	adapter, err := c.registry.Resolve(opts.Resource)
	if err != nil {
		observability.AuditCaptureFailures.WithLabelValues("resolve").Inc()
		c.log.Error("audit adapter resolution failed",
			zap.String("resource_type", string(opts.Resource)),
			zap.Error(err),
		)
		return prior{}
	}

	if opts.Batch {
		snaps, err := adapter.FetchMany(ctx, idSet(id))
		if err != nil {
			observability.AuditCaptureFailures.WithLabelValues("fetch").Inc()
			c.log.Error("audit prior-state batch fetch failed",
				zap.String("resource_type", string(opts.Resource)),
				zap.Error(err),
			)
			return prior{}
		}
		return prior{known: true, many: snaps}
	}

	s, ok := idString(id)
	if !ok {
		return prior{}
	}
	snap, err := adapter.FetchOne(ctx, s)
	if err != nil {
		observability.AuditCaptureFailures.WithLabelValues("fetch").Inc()
		c.log.Error("audit prior-state fetch failed",
			zap.String("resource_type", string(opts.Resource)),
			zap.String("resource_id", s),
			zap.Error(err),
		)
		return prior{}
	}
	return prior{known: true, one: snap}
}

// include evaluates the inclusion predicate. Predicate errors exclude the
// record: recording on a broken predicate would be guessing.
func (c *Capturer) include(opts Options, args []any, result any, ctx context.Context) bool {
	if opts.Include == nil {
		return true
	}
	ok, err := opts.Include(args, result, requestctx.FromContext(ctx))
	if err != nil {
		observability.AuditCaptureFailures.WithLabelValues("predicate").Inc()
		c.log.Warn("audit inclusion predicate failed, record excluded",
			zap.String("resource_type", string(opts.Resource)),
			zap.String("action", string(opts.Action)),
			zap.Error(err),
		)
		return false
	}
	return ok
}

func (c *Capturer) singleRecord(opts Options, meta requestctx.Meta, id any, haveID bool, before prior, result any) Record {
	rec := Record{
		ActorID:      meta.ActorID,
		RequestID:    meta.RequestID,
		Action:       opts.Action,
		ResourceType: opts.Resource,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
		NewState:     result,
	}
	if haveID {
		if s, ok := idString(id); ok {
			rec.ResourceID = &s
		}
	}
	if before.known && before.one != nil {
		rec.OldState = before.one
	}
	return rec
}

// batchRecords builds one record per resolved id, matching each id to its
// slice of the batch snapshot via the conventional id field. Ids the fetch
// did not return keep a NULL prior state. Zero resolved ids yield zero
// records; batching over an empty set is legitimate.
func (c *Capturer) batchRecords(opts Options, meta requestctx.Meta, id any, before prior, result any) []Record {
	ids := idSet(id)
	if len(ids) == 0 {
		return nil
	}

	byID := make(map[string]Snapshot, len(before.many))
	for _, snap := range before.many {
		if key, ok := idString(snap[SnapshotIDField]); ok {
			byID[key] = snap
		}
	}

	recs := make([]Record, 0, len(ids))
	for _, rid := range ids {
		rid := rid
		rec := Record{
			ActorID:      meta.ActorID,
			RequestID:    meta.RequestID,
			Action:       opts.Action,
			ResourceType: opts.Resource,
			ResourceID:   &rid,
			ClientIP:     meta.ClientIP,
			UserAgent:    meta.UserAgent,
			NewState:     result,
		}
		if snap, ok := byID[rid]; ok {
			rec.OldState = snap
		}
		recs = append(recs, rec)
	}
	return recs
}
