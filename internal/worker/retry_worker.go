package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
	"github.com/movaware/payout-engine/internal/core/service"
)

// RetryWorker sweeps FAILED transactions whose backoff has elapsed and
// re-drives them through the retry coordinator.
type RetryWorker struct {
	repo        ports.TransactionRepository
	retry       *service.RetryService
	interval    time.Duration
	maxAttempts int
	batchSize   int
	logger      *slog.Logger
}

func NewRetryWorker(
	repo ports.TransactionRepository,
	retry *service.RetryService,
	interval time.Duration,
	maxAttempts int,
	batchSize int,
	logger *slog.Logger,
) *RetryWorker {
	return &RetryWorker{
		repo:        repo,
		retry:       retry,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		logger:      logger,
	}
}

func (w *RetryWorker) Start(ctx context.Context) {
	w.logger.Info("retry worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retry worker stopping")
			return
		case <-ticker.C:
			w.ProcessRetries(ctx)
		}
	}
}

// ProcessRetries runs a single sweep.
func (w *RetryWorker) ProcessRetries(ctx context.Context) {
	due, err := w.repo.FindDueRetries(ctx, time.Now().UTC(), w.maxAttempts, w.batchSize)
	if err != nil {
		w.logger.Error("failed to fetch due retries", "error", err)
		return
	}

	if len(due) == 0 {
		return
	}

	w.logger.Info("processing due retries", "count", len(due))

	for _, tx := range due {
		if _, err := w.retry.Retry(ctx, tx.ID); err != nil {
			// a transaction that crossed the attempt cap between the sweep
			// query and the retry is exhausted, not a worker failure
			if domain.IsErrorCode(err, domain.ErrCodeRetryExhausted) {
				continue
			}
			w.logger.Error("retry failed",
				"transaction_id", tx.ID,
				"error", err)
		}
	}
}
