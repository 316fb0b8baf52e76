package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func instructions(n int) []domain.PayoutInstruction {
	out := make([]domain.PayoutInstruction, n)
	for i := range out {
		out[i] = domain.PayoutInstruction{
			EmployeeID:   fmt.Sprintf("E%d", i+1),
			EmployeeName: fmt.Sprintf("Employee %d", i+1),
			Phone:        "0712345678",
			Amount:       int64(1000 * (i + 1)),
			Occasion:     "Salary",
		}
	}
	return out
}

func TestPartition(t *testing.T) {
	windows := partition(instructions(12), 5)

	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	for i, want := range []int{5, 5, 2} {
		if len(windows[i]) != want {
			t.Errorf("window %d: expected %d instructions, got %d", i, want, len(windows[i]))
		}
	}
}

func TestProcessBatch_Conservation(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}
	// fail every third submission
	var n atomic.Int64
	gw.SubmitPayoutFn = func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		if n.Add(1)%3 == 0 {
			return nil, errors.New("connection reset")
		}
		return &domain.PayoutAck{
			ConversationID:           "AG_" + req.Reference,
			OriginatorConversationID: req.Reference,
			ResponseCode:             domain.GatewaySuccessCode,
		}, nil
	}

	svc := NewDispatchService(repo, gw, 5, time.Millisecond, testLogger())
	ins := instructions(12)

	result, err := svc.ProcessBatch(context.Background(), ins)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}

	if got := len(result.Successful) + len(result.Failed); got != len(ins) {
		t.Errorf("outcome count %d != instruction count %d", got, len(ins))
	}

	var total int64
	for _, in := range ins {
		total += in.Amount
	}
	if result.TotalAmount != total {
		t.Errorf("total amount %d != sum of instructions %d", result.TotalAmount, total)
	}
	if result.SuccessfulAmount+result.FailedAmount != result.TotalAmount {
		t.Errorf("amounts do not conserve: %d + %d != %d",
			result.SuccessfulAmount, result.FailedAmount, result.TotalAmount)
	}
	if result.WindowCount != 3 {
		t.Errorf("expected 3 windows, got %d", result.WindowCount)
	}
}

func TestProcessBatch_InterWindowDelayElapses(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}
	delay := 50 * time.Millisecond

	svc := NewDispatchService(repo, gw, 5, delay, testLogger())

	start := time.Now()
	_, err := svc.ProcessBatch(context.Background(), instructions(12))
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	elapsed := time.Since(start)

	// 3 windows means exactly 2 inter-window delays
	if elapsed < 2*delay {
		t.Errorf("expected at least %v of throttling, ran in %v", 2*delay, elapsed)
	}
	if elapsed > 3*delay+200*time.Millisecond {
		t.Errorf("batch took suspiciously long (%v), extra delay after last window?", elapsed)
	}
}

func TestProcessBatch_FailureIsolation(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}
	gw.SubmitPayoutFn = func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		if req.Amount == 2000 { // second instruction only
			return nil, errors.New("simulated transport error")
		}
		return &domain.PayoutAck{
			ConversationID: "AG_" + req.Reference,
			ResponseCode:   domain.GatewaySuccessCode,
		}, nil
	}

	svc := NewDispatchService(repo, gw, 5, 0, testLogger())
	result, err := svc.ProcessBatch(context.Background(), instructions(5))
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}

	if len(result.Successful) != 4 {
		t.Errorf("expected 4 successful, got %d", len(result.Successful))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failed, got %d", len(result.Failed))
	}
	failed := result.Failed[0]
	if failed.Instruction.EmployeeID != "E2" {
		t.Errorf("wrong instruction attributed to failure: %s", failed.Instruction.EmployeeID)
	}
	if failed.TransactionID == nil {
		t.Error("gateway failure should still have a ledger row")
	}
	// the failed transaction is FAILED in the ledger with a reason
	if repo.Len() != 5 {
		t.Errorf("expected 5 ledger rows, got %d", repo.Len())
	}
}

func TestProcessBatch_ValidationRejectWritesNoLedgerRow(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}
	svc := NewDispatchService(repo, gw, 5, 0, testLogger())

	ins := []domain.PayoutInstruction{
		{EmployeeID: "E1", Phone: "0712345678", Amount: 45000},
		{EmployeeID: "E2", Phone: "not-a-phone", Amount: 45000},
		{EmployeeID: "E3", Phone: "0712345678", Amount: 5}, // below minimum
	}

	result, err := svc.ProcessBatch(context.Background(), ins)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}

	if len(result.Successful) != 1 || len(result.Failed) != 2 {
		t.Fatalf("expected 1 successful / 2 failed, got %d / %d",
			len(result.Successful), len(result.Failed))
	}
	for _, f := range result.Failed {
		if f.TransactionID != nil {
			t.Errorf("validation reject for %s must not create a ledger row", f.Instruction.EmployeeID)
		}
	}
	if repo.Len() != 1 {
		t.Errorf("expected exactly 1 ledger row, got %d", repo.Len())
	}
	if gw.GetCalls("SubmitPayout") != 1 {
		t.Errorf("invalid instructions must not reach the gateway, got %d calls", gw.GetCalls("SubmitPayout"))
	}
}

func TestProcessBatch_BoundedConcurrency(t *testing.T) {
	repo := NewMockTransactionRepository()

	var inFlight, peak atomic.Int64
	gw := &MockGatewayPort{}
	gw.SubmitPayoutFn = func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return &domain.PayoutAck{ResponseCode: domain.GatewaySuccessCode, ConversationID: "AG_" + req.Reference}, nil
	}

	svc := NewDispatchService(repo, gw, 3, 0, testLogger())
	if _, err := svc.ProcessBatch(context.Background(), instructions(10)); err != nil {
		t.Fatalf("process batch: %v", err)
	}

	if p := peak.Load(); p > 3 {
		t.Errorf("concurrency exceeded window size: peak %d in-flight", p)
	}
}

func TestProcessBatch_CancellationAtWindowBoundary(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}

	ctx, cancel := context.WithCancel(context.Background())
	var submitted atomic.Int64
	gw.SubmitPayoutFn = func(_ context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
		if submitted.Add(1) == 5 {
			cancel() // cancel while first window is finishing
		}
		return &domain.PayoutAck{ResponseCode: domain.GatewaySuccessCode, ConversationID: "AG_" + req.Reference}, nil
	}

	svc := NewDispatchService(repo, gw, 5, time.Hour, testLogger())
	result, err := svc.ProcessBatch(ctx, instructions(12))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("cancellation must still return the partial result")
	}
	if got := result.Processed(); got != 5 {
		t.Errorf("expected outcomes for the joined window only, got %d", got)
	}
	if got := submitted.Load(); got != 5 {
		t.Errorf("windows after cancellation must not submit, gateway saw %d", got)
	}
}

func TestProcessBatch_EmptyInput(t *testing.T) {
	svc := NewDispatchService(NewMockTransactionRepository(), &MockGatewayPort{}, 5, 0, testLogger())
	_, err := svc.ProcessBatch(context.Background(), nil)
	if !domain.IsErrorCode(err, domain.ErrCodeMissingField) {
		t.Errorf("expected MISSING_FIELD for empty batch, got %v", err)
	}
}

func TestProcessBatch_SingleInstructionEndToEnd(t *testing.T) {
	repo := NewMockTransactionRepository()
	gw := &MockGatewayPort{}
	svc := NewDispatchService(repo, gw, 5, 0, testLogger())

	result, err := svc.ProcessBatch(context.Background(), []domain.PayoutInstruction{
		{EmployeeID: "E1", Phone: "0712345678", Amount: 45000},
	})
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}

	if len(result.Successful) != 1 {
		t.Fatalf("expected 1 successful payout, got %+v", result)
	}
	tx := result.Successful[0]
	if tx.Status != domain.StatusAccepted {
		t.Errorf("expected ACCEPTED after gateway ack, got %s", tx.Status)
	}
	if tx.Reference == "" {
		t.Error("transaction must carry a reference")
	}
	if tx.Phone != "254712345678" {
		t.Errorf("phone not normalized: %s", tx.Phone)
	}

	stats, err := NewReportService(repo).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalPayments != 1 {
		t.Errorf("expected totalPayments 1, got %d", stats.TotalPayments)
	}
}
