package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/service"
	"github.com/movaware/payout-engine/internal/worker"
)

func seedDueRetry(repo *service.MockTransactionRepository) *domain.Transaction {
	tx := domain.NewTransaction(domain.PayoutInstruction{
		EmployeeID: "E1", Phone: "0712345678", Amount: 45000,
	}, domain.NewPayoutReference(), "254712345678")
	_ = tx.Fail("unreachable subscriber")
	tx.ScheduleRetry(-time.Minute)
	repo.Seed(tx)
	return tx
}

func TestRetryWorker_RedrivesDueTransaction(t *testing.T) {
	repo := service.NewMockTransactionRepository()
	tx := seedDueRetry(repo)

	gw := &service.MockGatewayPort{}
	retry := service.NewRetryService(repo, gw, time.Second, 5, testLogger())
	w := worker.NewRetryWorker(repo, retry, time.Minute, 5, 10, testLogger())

	w.ProcessRetries(context.Background())

	stored := repo.Get(tx.ID)
	if stored.Status != domain.StatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", stored.Status)
	}
	if stored.AttemptCount != 1 {
		t.Errorf("attempt count = %d, want 1", stored.AttemptCount)
	}
	if stored.Reference != tx.Reference {
		t.Errorf("reference changed across retry")
	}
	if gw.GetCalls("SubmitPayout") != 1 {
		t.Errorf("SubmitPayout calls = %d, want 1", gw.GetCalls("SubmitPayout"))
	}
}

func TestRetryWorker_SkipsNotYetDue(t *testing.T) {
	repo := service.NewMockTransactionRepository()
	tx := domain.NewTransaction(domain.PayoutInstruction{
		EmployeeID: "E2", Phone: "0722000111", Amount: 38000,
	}, domain.NewPayoutReference(), "254722000111")
	_ = tx.Fail("unreachable subscriber")
	tx.ScheduleRetry(time.Hour)
	repo.Seed(tx)

	gw := &service.MockGatewayPort{}
	retry := service.NewRetryService(repo, gw, time.Second, 5, testLogger())
	w := worker.NewRetryWorker(repo, retry, time.Minute, 5, 10, testLogger())

	w.ProcessRetries(context.Background())

	if gw.GetCalls("SubmitPayout") != 0 {
		t.Errorf("not-yet-due transaction must not be submitted")
	}
	if repo.Get(tx.ID).Status != domain.StatusFailed {
		t.Errorf("status changed for not-yet-due transaction")
	}
}

func TestRetryWorker_SkipsExhausted(t *testing.T) {
	repo := service.NewMockTransactionRepository()
	tx := seedDueRetry(repo)
	tx.AttemptCount = 5
	repo.Seed(tx)

	gw := &service.MockGatewayPort{}
	retry := service.NewRetryService(repo, gw, time.Second, 5, testLogger())
	w := worker.NewRetryWorker(repo, retry, time.Minute, 5, 10, testLogger())

	w.ProcessRetries(context.Background())

	if gw.GetCalls("SubmitPayout") != 0 {
		t.Errorf("exhausted transaction must not be submitted")
	}
}

func TestRetryWorker_FailedResubmissionSchedulesNext(t *testing.T) {
	repo := service.NewMockTransactionRepository()
	tx := seedDueRetry(repo)

	gw := &service.MockGatewayPort{
		SubmitPayoutFn: func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
			return &domain.PayoutAck{
				ResponseCode:        "1",
				ResponseDescription: "insufficient float balance",
			}, nil
		},
	}
	retry := service.NewRetryService(repo, gw, time.Second, 5, testLogger())
	w := worker.NewRetryWorker(repo, retry, time.Minute, 5, 10, testLogger())

	w.ProcessRetries(context.Background())

	stored := repo.Get(tx.ID)
	if stored.Status != domain.StatusFailed {
		t.Errorf("status = %s, want FAILED", stored.Status)
	}
	if stored.NextRetryAt == nil || !stored.NextRetryAt.After(time.Now()) {
		t.Errorf("next retry not scheduled: %v", stored.NextRetryAt)
	}
	if stored.AttemptCount != 1 {
		t.Errorf("attempt count = %d, want 1", stored.AttemptCount)
	}
}
