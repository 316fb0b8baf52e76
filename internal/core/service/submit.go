package service

import (
	"context"
	"log/slog"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// submitTransaction drives one PENDING transaction through the gateway and
// patches the ledger with the outcome. Every gateway failure (transport
// error, auth failure, or a non-success response code) is absorbed into a
// FAILED transaction; the returned error reports only ledger write problems.
//
// Both first submissions and retries go through here, so the two paths can
// never drift apart.
func submitTransaction(
	ctx context.Context,
	repo ports.TransactionRepository,
	gw ports.GatewayPort,
	logger *slog.Logger,
	tx *domain.Transaction,
) error {
	ack, err := gw.SubmitPayout(ctx, domain.PayoutRequest{
		Reference: tx.Reference,
		Amount:    tx.Amount,
		Phone:     tx.Phone,
		Remarks:   tx.Remarks,
		Occasion:  tx.Occasion,
	})
	if err != nil {
		logger.Error("payout submission failed",
			"transaction_id", tx.ID,
			"reference", tx.Reference,
			"error", err)
		if ferr := tx.Fail(err.Error()); ferr != nil {
			return ferr
		}
		return repo.Update(ctx, tx)
	}

	if !ack.Accepted() {
		logger.Warn("payout rejected by gateway",
			"transaction_id", tx.ID,
			"reference", tx.Reference,
			"response_code", ack.ResponseCode,
			"response_description", ack.ResponseDescription)
		tx.ResponseCode = &ack.ResponseCode
		tx.ResponseDescription = &ack.ResponseDescription
		if ferr := tx.Fail(ack.ResponseDescription); ferr != nil {
			return ferr
		}
		return repo.Update(ctx, tx)
	}

	if err := tx.Accept(*ack); err != nil {
		return err
	}

	logger.Info("payout accepted",
		"transaction_id", tx.ID,
		"reference", tx.Reference,
		"conversation_id", ack.ConversationID)

	return repo.Update(ctx, tx)
}
