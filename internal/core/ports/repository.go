package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/movaware/payout-engine/internal/core/domain"
)

// Pagination defaults for ledger queries.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// TransactionFilter narrows ledger queries. Zero values mean "no constraint".
type TransactionFilter struct {
	EmployeeID string
	Status     domain.TransactionStatus
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

// Normalize applies pagination defaults and caps.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

// LedgerStats is the aggregate the reporting surface serves.
type LedgerStats struct {
	TotalPayments      int64
	SuccessfulPayments int64
	AcceptedPayments   int64
	PendingPayments    int64
	FailedPayments     int64
	TotalAmount        int64
	SuccessfulAmount   int64
	AveragePayment     float64
	LastPaymentDate    *time.Time
}

// TransactionRepository is the durable ledger of payout transactions. Rows are
// appended and patched, never deleted; it is the single source of truth for
// all reporting.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	FindByConversationID(ctx context.Context, conversationID string) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)

	// FindDueRetries returns FAILED transactions whose next_retry_at has
	// elapsed and whose attempt count is below the given cap.
	FindDueRetries(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.Transaction, error)

	// FindStaleAccepted returns ACCEPTED transactions older than the cutoff,
	// candidates for out-of-band settlement reconciliation.
	FindStaleAccepted(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error)

	Stats(ctx context.Context) (*LedgerStats, error)
}
