package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// SettlementService patches the ledger with the gateway's deferred final
// verdict. This is the only path that reaches COMPLETED; the submission path
// stops at ACCEPTED.
type SettlementService struct {
	repo   ports.TransactionRepository
	logger *slog.Logger
}

func NewSettlementService(repo ports.TransactionRepository, logger *slog.Logger) *SettlementService {
	return &SettlementService{repo: repo, logger: logger}
}

// FinalizeTransaction applies a settlement outcome to the ACCEPTED
// transaction identified by the gateway conversation id. Outcomes for
// transactions in any other state are rejected with INVALID_TRANSITION.
func (s *SettlementService) FinalizeTransaction(ctx context.Context, conversationID string, outcome domain.SettlementOutcome) (*domain.Transaction, error) {
	tx, err := s.repo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if outcome.Succeeded {
		completedAt := outcome.CompletedAt
		if completedAt.IsZero() {
			completedAt = time.Now().UTC()
		}
		if err := tx.Complete(outcome.Receipt, completedAt); err != nil {
			return nil, err
		}
		s.logger.Info("payout settled",
			"transaction_id", tx.ID,
			"conversation_id", conversationID,
			"receipt", outcome.Receipt)
	} else {
		reason := outcome.Description
		if reason == "" {
			reason = "settlement failed with result code " + outcome.ResultCode
		}
		if err := tx.Fail(reason); err != nil {
			return nil, err
		}
		s.logger.Warn("payout settlement failed",
			"transaction_id", tx.ID,
			"conversation_id", conversationID,
			"result_code", outcome.ResultCode)
	}

	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// HandleQueueTimeout marks a payout FAILED after the gateway reports it
// expired in its processing queue without being attempted. The timeout
// callback carries the originator conversation id, which is our reference.
func (s *SettlementService) HandleQueueTimeout(ctx context.Context, reference string) (*domain.Transaction, error) {
	tx, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if err := tx.Fail("request expired in gateway queue"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Warn("payout expired in gateway queue",
		"transaction_id", tx.ID,
		"reference", reference)

	return tx, nil
}
