package audit

import (
	"context"

	"github.com/calterra/adminaudit/internal/requestctx"
)

// IncludeFunc decides, after the wrapped operation has completed, whether a
// record should be produced at all. An error from the predicate excludes
// the record (fail closed) and is never surfaced to the business caller.
type IncludeFunc func(args []any, result any, meta requestctx.Meta) (bool, error)

// Options declares how one operation is audited. Declared once at wrap
// time and never mutated afterwards.
type Options struct {
	Action   Action
	Resource ResourceType

	// ID locates the resource id. The zero value means no pre-call source
	// and no result path, i.e. no id will be resolved.
	ID IDSource

	// Batch treats the resolved id as a set and produces one record per
	// element.
	Batch bool

	Include IncludeFunc
}

type idMode int

const (
	idNone idMode = iota
	idArg
	idArgPath
	idResult
)

// IDSource names where the resource id comes from: a positional argument,
// a dotted path into the first argument (both known before the call), or a
// dotted path into the result (CREATE, known only after the call). The
// constructors are mutually exclusive.
type IDSource struct {
	mode idMode
	arg  int
	path string
}

// IDFromArg takes the id from the argument at position i.
func IDFromArg(i int) IDSource {
	return IDSource{mode: idArg, arg: i}
}

// IDFromArgPath extracts the id from a dotted path into the first argument.
func IDFromArgPath(path string) IDSource {
	return IDSource{mode: idArgPath, path: path}
}

// IDFromResult extracts the id from a dotted path into the operation's
// return value. The id is only known after the call, so no prior state is
// captured.
func IDFromResult(path string) IDSource {
	return IDSource{mode: idResult, path: path}
}

// resolvePre returns the candidate id available before the operation runs.
func (s IDSource) resolvePre(args []any) (any, bool) {
	switch s.mode {
	case idArg:
		if s.arg < 0 || s.arg >= len(args) {
			return nil, false
		}
		return presentID(args[s.arg])
	case idArgPath:
		if len(args) == 0 {
			return nil, false
		}
		v, ok := lookup(args[0], s.path)
		if !ok {
			return nil, false
		}
		return presentID(v)
	}
	return nil, false
}

// resolvePost returns the id knowable only from the operation's result.
func (s IDSource) resolvePost(result any) (any, bool) {
	if s.mode != idResult {
		return nil, false
	}
	v, ok := lookup(result, s.path)
	if !ok {
		return nil, false
	}
	return presentID(v)
}

// Operation is the wrapped business operation. It receives the caller's
// context unchanged; its error, if any, propagates to the caller unmodified.
type Operation func(ctx context.Context) (any, error)
