package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/calterra/adminaudit/internal/observability"
)

const defaultQueueSize = 256

// Dispatcher decouples record persistence from the caller's stack: submits
// go onto a bounded queue drained by a single background worker, so a slow
// or failing sink is observable in logs and metrics but never on the
// audited operation's latency. A full queue drops the submission.
type Dispatcher struct {
	sink Sink
	log  *zap.Logger
	ch   chan job
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

type job struct {
	records []Record
	batch   bool
}

func NewDispatcher(sink Sink, queueSize int, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		sink: sink,
		log:  log,
		ch:   make(chan job, queueSize),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit enqueues one record. Never blocks.
func (d *Dispatcher) Submit(rec Record) {
	d.enqueue(job{records: []Record{rec}})
}

// SubmitBatch enqueues a set of records destined for the sink's bulk-insert
// contract with duplicate skipping. An empty set is a no-op.
func (d *Dispatcher) SubmitBatch(recs []Record) {
	if len(recs) == 0 {
		return
	}
	d.enqueue(job{records: recs, batch: true})
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.drop(j, "stopped")
		return
	}
	select {
	case d.ch <- j:
		observability.AuditQueueDepth.Set(float64(len(d.ch)))
	default:
		d.drop(j, "queue_full")
	}
}

func (d *Dispatcher) drop(j job, reason string) {
	observability.AuditQueueDropped.WithLabelValues(reason).Add(float64(len(j.records)))
	d.log.Warn("audit record dropped",
		zap.String("reason", reason),
		zap.Int("records", len(j.records)),
	)
}

// Stop closes the queue and waits until every already-enqueued record has
// been handed to the sink. Records in flight at process kill are lost; the
// trail does not promise write-ahead durability across termination.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.ch {
		observability.AuditQueueDepth.Set(float64(len(d.ch)))
		d.write(j)
	}
}

func (d *Dispatcher) write(j job) {
	ctx := context.Background()

	var err error
	if j.batch {
		err = d.sink.CreateAuditLogBatch(ctx, j.records, true)
	} else {
		err = d.sink.CreateAuditLog(ctx, j.records[0])
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		first := j.records[0]
		observability.CaptureLogger(d.log, string(first.Action), string(first.ResourceType)).Error(
			"audit log write failed",
			zap.Error(err),
			zap.Int("records", len(j.records)),
		)
	}
	for _, rec := range j.records {
		observability.AuditRecordsTotal.WithLabelValues(
			string(rec.Action), string(rec.ResourceType), outcome,
		).Inc()
	}
}
