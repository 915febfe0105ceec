package audit

import "context"

// Sink accepts finished audit records for durable storage. The pipeline
// never awaits a sink call from the business caller's stack and never
// retries a failed write; retry policy, timeouts and duplicate detection
// all belong to the sink.
type Sink interface {
	CreateAuditLog(ctx context.Context, rec Record) error

	// CreateAuditLogBatch persists a set of records. With skipDuplicates
	// set, records matching the sink's uniqueness policy are silently
	// dropped instead of failing the batch.
	CreateAuditLogBatch(ctx context.Context, recs []Record, skipDuplicates bool) error
}
