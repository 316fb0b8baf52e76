package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// DispatchService partitions a payroll run into fixed-size windows and
// drives bounded-concurrency submission: at most windowSize payouts are in
// flight at once, with interWindowDelay between windows to respect the
// gateway's rate limits.
type DispatchService struct {
	repo             ports.TransactionRepository
	gateway          ports.GatewayPort
	windowSize       int
	interWindowDelay time.Duration
	logger           *slog.Logger
}

func NewDispatchService(
	repo ports.TransactionRepository,
	gateway ports.GatewayPort,
	windowSize int,
	interWindowDelay time.Duration,
	logger *slog.Logger,
) *DispatchService {
	if windowSize < 1 {
		windowSize = 1
	}
	return &DispatchService{
		repo:             repo,
		gateway:          gateway,
		windowSize:       windowSize,
		interWindowDelay: interWindowDelay,
		logger:           logger,
	}
}

// ProcessBatch submits every instruction and returns a full accounting. A
// single instruction's failure is recorded in the failed list and never
// aborts the window or the batch; the only top-level errors are programmer
// errors (empty input) and cancellation.
//
// On cancellation the partial BatchResult accumulated so far is returned
// together with ctx.Err(); windows already joined keep their outcomes.
func (s *DispatchService) ProcessBatch(ctx context.Context, instructions []domain.PayoutInstruction) (*domain.BatchResult, error) {
	if len(instructions) == 0 {
		return nil, domain.NewMissingFieldError("instructions")
	}

	result := &domain.BatchResult{StartedAt: time.Now().UTC()}
	for _, in := range instructions {
		result.TotalAmount += in.Amount
	}

	var mu sync.Mutex
	windows := partition(instructions, s.windowSize)
	result.WindowCount = len(windows)

	s.logger.Info("processing payout batch",
		"instructions", len(instructions),
		"windows", len(windows),
		"window_size", s.windowSize)

	for i, window := range windows {
		select {
		case <-ctx.Done():
			result.FinishedAt = time.Now().UTC()
			return result, ctx.Err()
		default:
		}

		var wg sync.WaitGroup
		for _, instruction := range window {
			wg.Add(1)
			go func(in domain.PayoutInstruction) {
				defer wg.Done()
				outcome := s.submitInstruction(ctx, in)

				mu.Lock()
				defer mu.Unlock()
				if outcome.failed != nil {
					result.Failed = append(result.Failed, *outcome.failed)
					result.FailedAmount += in.Amount
				} else {
					result.Successful = append(result.Successful, outcome.tx)
					result.SuccessfulAmount += in.Amount
				}
			}(instruction)
		}
		wg.Wait()

		if i < len(windows)-1 {
			select {
			case <-ctx.Done():
				result.FinishedAt = time.Now().UTC()
				return result, ctx.Err()
			case <-time.After(s.interWindowDelay):
			}
		}
	}

	result.FinishedAt = time.Now().UTC()

	s.logger.Info("payout batch finished",
		"successful", len(result.Successful),
		"failed", len(result.Failed),
		"successful_amount", result.SuccessfulAmount,
		"failed_amount", result.FailedAmount)

	return result, nil
}

type submitOutcome struct {
	tx     *domain.Transaction
	failed *domain.FailedPayout
}

// submitInstruction runs the full per-instruction path: validate, mint a
// reference, write the PENDING ledger row, submit, patch. Validation rejects
// never produce a ledger row.
func (s *DispatchService) submitInstruction(ctx context.Context, instruction domain.PayoutInstruction) submitOutcome {
	if err := instruction.Validate(); err != nil {
		return submitOutcome{failed: &domain.FailedPayout{
			Instruction: instruction,
			Reason:      err.Error(),
		}}
	}

	phone, err := domain.NormalizePhone(instruction.Phone)
	if err != nil {
		return submitOutcome{failed: &domain.FailedPayout{
			Instruction: instruction,
			Reason:      err.Error(),
		}}
	}

	tx := domain.NewTransaction(instruction, domain.NewPayoutReference(), phone)
	if err := s.repo.Create(ctx, tx); err != nil {
		s.logger.Error("failed to write pending transaction",
			"employee_id", instruction.EmployeeID,
			"error", err)
		return submitOutcome{failed: &domain.FailedPayout{
			Instruction: instruction,
			Reason:      "ledger write failed: " + err.Error(),
		}}
	}

	if err := submitTransaction(ctx, s.repo, s.gateway, s.logger, tx); err != nil {
		s.logger.Error("failed to record submission outcome",
			"transaction_id", tx.ID,
			"error", err)
	}

	if tx.Status == domain.StatusFailed {
		id := tx.ID.String()
		reason := ""
		if tx.FailureReason != nil {
			reason = *tx.FailureReason
		}
		return submitOutcome{failed: &domain.FailedPayout{
			Instruction:   instruction,
			Reason:        reason,
			TransactionID: &id,
		}}
	}

	return submitOutcome{tx: tx}
}

// partition splits instructions into consecutive windows of at most size.
func partition(instructions []domain.PayoutInstruction, size int) [][]domain.PayoutInstruction {
	var windows [][]domain.PayoutInstruction
	for start := 0; start < len(instructions); start += size {
		end := start + size
		if end > len(instructions) {
			end = len(instructions)
		}
		windows = append(windows, instructions[start:end])
	}
	return windows
}
