package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
)

func failedTransaction(attempts int) *domain.Transaction {
	tx := domain.NewTransaction(domain.PayoutInstruction{
		EmployeeID: "E1",
		Phone:      "0712345678",
		Amount:     45000,
	}, domain.NewPayoutReference(), "254712345678")
	_ = tx.Fail("gateway timeout")
	tx.AttemptCount = attempts
	return tx
}

func TestRetry_SucceedsAndPreservesReference(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}

	var submittedRef string
	gw.SubmitPayoutFn = func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		submittedRef = req.Reference
		return &domain.PayoutAck{
			ConversationID:           "AG_retry_1",
			OriginatorConversationID: req.Reference,
			ResponseCode:             domain.GatewaySuccessCode,
		}, nil
	}

	seed := failedTransaction(0)
	repo.Seed(seed)

	svc := NewRetryService(repo, gw, time.Second, 5, testLogger())
	tx, err := svc.Retry(context.Background(), seed.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}

	if tx.Status != domain.StatusAccepted {
		t.Errorf("expected ACCEPTED after successful retry, got %s", tx.Status)
	}
	if tx.AttemptCount != 1 {
		t.Errorf("expected attempt count 1, got %d", tx.AttemptCount)
	}
	if tx.ID != seed.ID {
		t.Error("retry must keep the transaction id")
	}
	if submittedRef != seed.Reference {
		t.Errorf("retry must reuse the idempotency key: sent %q, want %q", submittedRef, seed.Reference)
	}
}

func TestRetry_PendingImmediatelyAfterTransition(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}

	var statusDuringSubmit domain.TransactionStatus
	seed := failedTransaction(0)
	repo.Seed(seed)
	gw.SubmitPayoutFn = func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		statusDuringSubmit = repo.Get(seed.ID).Status
		return &domain.PayoutAck{ConversationID: "AG_x", ResponseCode: domain.GatewaySuccessCode}, nil
	}

	svc := NewRetryService(repo, gw, time.Second, 5, testLogger())
	if _, err := svc.Retry(context.Background(), seed.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if statusDuringSubmit != domain.StatusPending {
		t.Errorf("ledger must show PENDING while the retry submission is in flight, saw %s", statusDuringSubmit)
	}
}

func TestRetry_FailsAgainWithUpdatedReason(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}
	gw.SubmitPayoutFn = func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		return nil, errors.New("still unreachable")
	}

	seed := failedTransaction(1)
	repo.Seed(seed)

	svc := NewRetryService(repo, gw, time.Second, 5, testLogger())
	tx, err := svc.Retry(context.Background(), seed.ID)
	if err != nil {
		t.Fatalf("a failed re-submission is a resolved retry, not an error: %v", err)
	}

	if tx.Status != domain.StatusFailed {
		t.Errorf("expected FAILED, got %s", tx.Status)
	}
	if tx.FailureReason == nil || *tx.FailureReason != "still unreachable" {
		t.Errorf("failure reason not updated: %v", tx.FailureReason)
	}
	if tx.AttemptCount != 2 {
		t.Errorf("expected attempt count 2, got %d", tx.AttemptCount)
	}
	if tx.NextRetryAt == nil || !tx.NextRetryAt.After(time.Now()) {
		t.Errorf("next retry not scheduled: %v", tx.NextRetryAt)
	}
}

func TestRetry_NotRetryableStates(t *testing.T) {
	repo := NewMockTransactionRepository()
	svc := NewRetryService(repo, &MockGatewayPort{}, time.Second, 5, testLogger())

	for _, status := range []domain.TransactionStatus{
		domain.StatusPending,
		domain.StatusAccepted,
		domain.StatusCompleted,
		domain.StatusExhausted,
	} {
		tx := domain.NewTransaction(domain.PayoutInstruction{
			EmployeeID: "E1", Phone: "0712345678", Amount: 1000,
		}, domain.NewPayoutReference(), "254712345678")
		tx.Status = status
		repo.Seed(tx)

		_, err := svc.Retry(context.Background(), tx.ID)
		if !domain.IsErrorCode(err, domain.ErrCodeNotRetryable) {
			t.Errorf("status %s: expected NOT_RETRYABLE, got %v", status, err)
		}
	}
}

func TestRetry_ExhaustsAtAttemptCap(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}

	seed := failedTransaction(5)
	repo.Seed(seed)

	svc := NewRetryService(repo, gw, time.Second, 5, testLogger())
	tx, err := svc.Retry(context.Background(), seed.ID)

	if !domain.IsErrorCode(err, domain.ErrCodeRetryExhausted) {
		t.Fatalf("expected RETRY_EXHAUSTED, got %v", err)
	}
	if tx.Status != domain.StatusExhausted {
		t.Errorf("expected EXHAUSTED, got %s", tx.Status)
	}
	if gw.GetCalls("SubmitPayout") != 0 {
		t.Error("exhausted transaction must not reach the gateway")
	}

	stored := repo.Get(seed.ID)
	if stored.Status != domain.StatusExhausted {
		t.Errorf("EXHAUSTED not persisted, ledger shows %s", stored.Status)
	}
}
