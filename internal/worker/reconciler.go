package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
	"github.com/movaware/payout-engine/internal/core/service"
)

// Reconciler sweeps ACCEPTED transactions whose result callback never
// arrived and resolves them with an out-of-band status query.
type Reconciler struct {
	repo       ports.TransactionRepository
	gateway    ports.GatewayPort
	settlement *service.SettlementService
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewReconciler(
	repo ports.TransactionRepository,
	gateway ports.GatewayPort,
	settlement *service.SettlementService,
	interval time.Duration,
	staleAfter time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		repo:       repo,
		gateway:    gateway,
		settlement: settlement,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting settlement reconciler",
		"interval", r.interval,
		"stale_after", r.staleAfter,
		"batch_size", r.batchSize)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping settlement reconciler")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	stale, err := r.repo.FindStaleAccepted(ctx, r.staleAfter, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch stale accepted transactions", "error", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	r.logger.Info("reconciling unsettled payouts", "count", len(stale))

	for _, tx := range stale {
		if tx.ConversationID == nil {
			continue
		}

		status, err := r.gateway.QueryStatus(ctx, *tx.ConversationID)
		if err != nil {
			r.logger.Error("status query failed",
				"transaction_id", tx.ID,
				"conversation_id", *tx.ConversationID,
				"error", err)
			continue
		}

		if !status.Settled {
			// still in flight on the gateway side, leave it for the next sweep
			continue
		}

		_, err = r.settlement.FinalizeTransaction(ctx, *tx.ConversationID, domain.SettlementOutcome{
			Succeeded:   status.Succeeded,
			Receipt:     status.Receipt,
			ResultCode:  status.ResultCode,
			Description: status.ResultDescription,
			CompletedAt: status.CompletedAt,
		})
		if err != nil {
			r.logger.Error("reconciliation failed",
				"transaction_id", tx.ID,
				"error", err)
			continue
		}

		r.logger.Info("reconciled payout",
			"transaction_id", tx.ID,
			"succeeded", status.Succeeded)
	}
}
