package service

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// RetryService re-drives FAILED transactions through the gateway. Attempts
// are bounded; a transaction past the cap lands in the terminal EXHAUSTED
// state instead of looping forever.
type RetryService struct {
	repo        ports.TransactionRepository
	gateway     ports.GatewayPort
	baseDelay   time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewRetryService(
	repo ports.TransactionRepository,
	gateway ports.GatewayPort,
	baseDelay time.Duration,
	maxAttempts int,
	logger *slog.Logger,
) *RetryService {
	return &RetryService{
		repo:        repo,
		gateway:     gateway,
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Retry re-submits a FAILED transaction. The transaction keeps its id and
// reference; the gateway de-duplicates on the originator conversation id, so
// a payout that actually settled after being locally marked FAILED cannot be
// paid twice. A failed re-submission marks the transaction FAILED again with
// an updated reason and schedules the next attempt; that is a resolved
// retry, not an error.
func (s *RetryService) Retry(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if tx.Status != domain.StatusFailed {
		return nil, domain.NewNotRetryableError(tx.Status)
	}

	if tx.AttemptCount >= s.maxAttempts {
		if err := tx.Exhaust(); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, tx); err != nil {
			return nil, err
		}
		s.logger.Warn("transaction exhausted retry budget",
			"transaction_id", tx.ID,
			"attempts", tx.AttemptCount)
		return tx, domain.NewRetryExhaustedError(tx.AttemptCount)
	}

	instruction := domain.PayoutInstruction{
		EmployeeID: tx.EmployeeID,
		Phone:      tx.Phone,
		Amount:     tx.Amount,
	}
	if err := instruction.Validate(); err != nil {
		return nil, err
	}

	if err := tx.PrepareRetry(time.Now().UTC()); err != nil {
		return nil, err
	}
	// persist the PENDING transition before touching the network so a crash
	// mid-retry is visible in the ledger
	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("retrying payout",
		"transaction_id", tx.ID,
		"reference", tx.Reference,
		"attempt", tx.AttemptCount)

	if err := submitTransaction(ctx, s.repo, s.gateway, s.logger, tx); err != nil {
		return nil, err
	}

	if tx.Status == domain.StatusFailed {
		tx.ScheduleRetry(s.backoff(tx.AttemptCount))
		if err := s.repo.Update(ctx, tx); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// Backoff calculation with exponential delay and jitter
func (s *RetryService) backoff(attempt int) time.Duration {
	base := s.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
