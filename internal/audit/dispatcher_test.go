package audit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestDispatcherDrainsQueueOnStop(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 64, zap.NewNop())

	for i := 0; i < 20; i++ {
		id := strconv.Itoa(i)
		d.Submit(Record{Action: ActionCreate, ResourceType: ResourceRole, ResourceID: &id})
	}
	d.Stop()

	if len(sink.singles) != 20 {
		t.Fatalf("expected 20 records after drain, got %d", len(sink.singles))
	}
	// FIFO order is part of the queue contract.
	for i, rec := range sink.singles {
		if *rec.ResourceID != strconv.Itoa(i) {
			t.Fatalf("record %d out of order: %s", i, *rec.ResourceID)
		}
	}
}

func TestDispatcherSubmitAfterStopIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 4, zap.NewNop())
	d.Stop()

	// Must neither panic nor write.
	d.Submit(Record{Action: ActionDelete, ResourceType: ResourceUser})
	d.SubmitBatch([]Record{{Action: ActionDelete, ResourceType: ResourceUser}})

	if len(sink.singles) != 0 || len(sink.batches) != 0 {
		t.Errorf("writes after stop: %d singles %d batches", len(sink.singles), len(sink.batches))
	}
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, 4, zap.NewNop())
	d.Stop()
	d.Stop()
}

// blockingSink holds every write until released, so tests can fill the
// queue deterministically.
type blockingSink struct {
	gate    chan struct{}
	mu      sync.Mutex
	written int
}

func (s *blockingSink) CreateAuditLog(context.Context, Record) error {
	<-s.gate
	s.mu.Lock()
	s.written++
	s.mu.Unlock()
	return nil
}

func (s *blockingSink) CreateAuditLogBatch(context.Context, []Record, bool) error {
	<-s.gate
	return nil
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sink := &blockingSink{gate: make(chan struct{})}
	d := NewDispatcher(sink, 2, zap.NewNop())

	// Worker takes one job off the queue and blocks in the sink; two more
	// fill the queue; everything beyond that must drop without blocking.
	for i := 0; i < 10; i++ {
		d.Submit(Record{Action: ActionCreate, ResourceType: ResourceRole})
	}
	close(sink.gate)
	d.Stop()

	sink.mu.Lock()
	written := sink.written
	sink.mu.Unlock()
	if written == 0 || written > 3 {
		t.Errorf("expected 1-3 records written with a queue of 2, got %d", written)
	}
}

type failingSink struct {
	recordingSink
}

func (s *failingSink) CreateAuditLog(context.Context, Record) error {
	return errors.New("sink unavailable")
}

func TestDispatcherSurvivesSinkErrors(t *testing.T) {
	sink := &failingSink{}
	d := NewDispatcher(sink, 4, zap.NewNop())

	d.Submit(Record{Action: ActionUpdate, ResourceType: ResourceRole})
	d.Submit(Record{Action: ActionUpdate, ResourceType: ResourceRole})
	d.Stop()
	// Reaching here without panic is the assertion: a failing sink is
	// logged and counted but never tears down the worker.
}
