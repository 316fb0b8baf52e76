// Package domain defines the domain models for the payout engine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the current state of a payout transaction in its lifecycle
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusAccepted  TransactionStatus = "ACCEPTED"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusExhausted TransactionStatus = "EXHAUSTED"
)

// Transaction represents a single payout submission attempt against the
// disbursement gateway. It is created PENDING when first submitted and is
// patched in place as its status changes; ledger rows are never deleted.
type Transaction struct {
	ID        uuid.UUID
	Reference string // idempotency key, preserved across retries

	EmployeeID     string
	EmployeeName   string
	EmployeeNumber string
	Phone          string // normalized 254XXXXXXXXX form
	Amount         int64
	Remarks        string
	Occasion       string

	Status              TransactionStatus
	ConversationID      *string
	Receipt             *string
	ResponseCode        *string
	ResponseDescription *string
	FailureReason       *string

	AttemptCount int
	NextRetryAt  *time.Time
	LastRetryAt  *time.Time

	InitiatedAt time.Time
	CompletedAt *time.Time
}

// NewTransaction builds a PENDING transaction from a validated instruction.
// The instruction is copied; the engine never mutates the caller's copy.
func NewTransaction(instruction PayoutInstruction, reference, normalizedPhone string) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		Reference:      reference,
		EmployeeID:     instruction.EmployeeID,
		EmployeeName:   instruction.EmployeeName,
		EmployeeNumber: instruction.EmployeeNumber,
		Phone:          normalizedPhone,
		Amount:         instruction.Amount,
		Remarks:        instruction.Remarks,
		Occasion:       instruction.Occasion,
		Status:         StatusPending,
		InitiatedAt:    time.Now().UTC(),
	}
}

// CanTransitionTo validates whether a transaction can transition from its current
// status to the target status. It returns nil if the transition is allowed,
// otherwise an error describing why the transition is invalid.
//
// Terminal states (Completed, Exhausted) do not allow any further transitions.
//
// Valid transitions are:
//   - Pending → Accepted, Failed
//   - Accepted → Completed, Failed
//   - Failed → Pending, Exhausted (retry coordinator only)
func (t *Transaction) CanTransitionTo(target TransactionStatus) error {
	switch t.Status {
	case StatusCompleted, StatusExhausted:
		return NewInvalidTransitionError(t.Status, target)

	case StatusPending:
		if target == StatusAccepted || target == StatusFailed {
			return nil
		}

	case StatusAccepted:
		if target == StatusCompleted || target == StatusFailed {
			return nil
		}

	case StatusFailed:
		if target == StatusPending || target == StatusExhausted {
			return nil
		}
	}
	return NewInvalidTransitionError(t.Status, target)
}

func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusExhausted:
		return true
	default:
		return false
	}
}

// Accept records the gateway's immediate acknowledgment. This is not final
// settlement; only Complete moves the transaction to COMPLETED.
func (t *Transaction) Accept(ack PayoutAck) error {
	if err := t.CanTransitionTo(StatusAccepted); err != nil {
		return err
	}
	t.Status = StatusAccepted
	t.ConversationID = &ack.ConversationID
	t.ResponseCode = &ack.ResponseCode
	t.ResponseDescription = &ack.ResponseDescription
	return nil
}

// Fail marks the transaction FAILED with the given reason. A non-success
// response code or any transport error from the gateway lands here.
func (t *Transaction) Fail(reason string) error {
	if err := t.CanTransitionTo(StatusFailed); err != nil {
		return err
	}
	t.Status = StatusFailed
	t.FailureReason = &reason
	return nil
}

// Complete records final settlement with the gateway receipt. Reachable only
// from ACCEPTED, via the result callback or a status query.
func (t *Transaction) Complete(receipt string, completedAt time.Time) error {
	if err := t.CanTransitionTo(StatusCompleted); err != nil {
		return err
	}
	t.Status = StatusCompleted
	t.Receipt = &receipt
	t.CompletedAt = &completedAt
	return nil
}

// PrepareRetry transitions FAILED → PENDING and increments the attempt count
// atomically with the transition. The reference is untouched so the gateway
// can de-duplicate if the earlier submission actually went through.
func (t *Transaction) PrepareRetry(now time.Time) error {
	if err := t.CanTransitionTo(StatusPending); err != nil {
		return err
	}
	t.Status = StatusPending
	t.AttemptCount++
	t.LastRetryAt = &now
	t.NextRetryAt = nil
	t.FailureReason = nil
	return nil
}

// Exhaust moves a FAILED transaction past the retry cap into the terminal
// EXHAUSTED state.
func (t *Transaction) Exhaust() error {
	if err := t.CanTransitionTo(StatusExhausted); err != nil {
		return err
	}
	t.Status = StatusExhausted
	t.NextRetryAt = nil
	return nil
}

// ScheduleRetry stamps when the retry sweeper may pick this transaction up again.
func (t *Transaction) ScheduleRetry(after time.Duration) {
	next := time.Now().UTC().Add(after)
	t.NextRetryAt = &next
}
