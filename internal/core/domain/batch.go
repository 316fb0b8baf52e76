package domain

import "time"

// FailedPayout records one instruction that did not reach ACCEPTED, with the
// reason and, when a ledger row was written, the transaction that carries it.
// Validation rejects never produce a ledger row, so TransactionID is nil there.
type FailedPayout struct {
	Instruction   PayoutInstruction
	Reason        string
	TransactionID *string
}

// BatchResult is the aggregated outcome of one payroll run. A non-empty
// Failed list is the normal shape of a partially failed batch, not an error;
// callers must inspect both lists.
type BatchResult struct {
	Successful []*Transaction
	Failed     []FailedPayout

	TotalAmount      int64
	SuccessfulAmount int64
	FailedAmount     int64

	WindowCount int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Processed returns how many instructions have an outcome so far. It equals
// the batch size once the run finishes.
func (r *BatchResult) Processed() int {
	return len(r.Successful) + len(r.Failed)
}
