package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

var ErrTransactionNotFound = &domain.DomainError{
	Code:    domain.ErrCodeTransactionNotFound,
	Message: "transaction not found",
}

const transactionColumns = `
	id, reference, employee_id, employee_name, employee_number,
	phone, amount, remarks, occasion, status,
	conversation_id, receipt, response_code, response_description, failure_reason,
	attempt_count, next_retry_at, last_retry_at, initiated_at, completed_at`

// TransactionRepository is the durable ledger. Rows are inserted once and
// patched in place; nothing ever deletes them.
type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, reference, employee_id, employee_name, employee_number,
			phone, amount, remarks, occasion, status,
			conversation_id, receipt, response_code, response_description, failure_reason,
			attempt_count, next_retry_at, last_retry_at, initiated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	m := toDBModel(tx)
	_, err := r.db.Pool.Exec(ctx, query,
		m.ID, m.Reference, m.EmployeeID, m.EmployeeName, m.EmployeeNumber,
		m.Phone, m.Amount, m.Remarks, m.Occasion, m.Status,
		m.ConversationID, m.Receipt, m.ResponseCode, m.ResponseDescription, m.FailureReason,
		m.AttemptCount, m.NextRetryAt, m.LastRetryAt, m.InitiatedAt, m.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1,
			conversation_id = $2, receipt = $3,
			response_code = $4, response_description = $5, failure_reason = $6,
			attempt_count = $7, next_retry_at = $8, last_retry_at = $9,
			completed_at = $10
		WHERE id = $11
	`

	m := toDBModel(tx)
	result, err := r.db.Pool.Exec(ctx, query,
		m.Status,
		m.ConversationID, m.Receipt,
		m.ResponseCode, m.ResponseDescription, m.FailureReason,
		m.AttemptCount, m.NextRetryAt, m.LastRetryAt,
		m.CompletedAt,
		m.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanTransaction(row)
}

func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	row := r.db.Pool.QueryRow(ctx, query, reference)
	return scanTransaction(row)
}

func (r *TransactionRepository) FindByConversationID(ctx context.Context, conversationID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE conversation_id = $1`
	row := r.db.Pool.QueryRow(ctx, query, conversationID)
	return scanTransaction(row)
}

// List returns a page of transactions matching the filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter) ([]*domain.Transaction, error) {
	filter.Normalize()

	var (
		conditions []string
		args       []any
	)

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, "initiated_at >= $"+strconv.Itoa(len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, "initiated_at <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	query += " ORDER BY initiated_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	return collectTransactions(rows)
}

func (r *TransactionRepository) FindDueRetries(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'FAILED'
		  AND attempt_count < $1
		  AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY initiated_at ASC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, maxAttempts, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due retries: %w", err)
	}

	return collectTransactions(rows)
}

func (r *TransactionRepository) FindStaleAccepted(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'ACCEPTED'
		  AND initiated_at < $1
		ORDER BY initiated_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("query stale accepted transactions: %w", err)
	}

	return collectTransactions(rows)
}

// Stats aggregates the whole ledger in one pass.
func (r *TransactionRepository) Stats(ctx context.Context) (*ports.LedgerStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status = 'ACCEPTED'),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status IN ('FAILED', 'EXHAUSTED')),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0),
			MAX(initiated_at)
		FROM transactions
	`

	stats := &ports.LedgerStats{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&stats.TotalPayments,
		&stats.SuccessfulPayments,
		&stats.AcceptedPayments,
		&stats.PendingPayments,
		&stats.FailedPayments,
		&stats.TotalAmount,
		&stats.SuccessfulAmount,
		&stats.LastPaymentDate,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate ledger stats: %w", err)
	}

	if stats.TotalPayments > 0 {
		stats.AveragePayment = float64(stats.TotalAmount) / float64(stats.TotalPayments)
	}

	return stats, nil
}

// scanTransaction converts a database row into a domain Transaction.
// Returns ErrTransactionNotFound if the row doesn't exist.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m TransactionModel
	err := row.Scan(
		&m.ID, &m.Reference, &m.EmployeeID, &m.EmployeeName, &m.EmployeeNumber,
		&m.Phone, &m.Amount, &m.Remarks, &m.Occasion, &m.Status,
		&m.ConversationID, &m.Receipt, &m.ResponseCode, &m.ResponseDescription, &m.FailureReason,
		&m.AttemptCount, &m.NextRetryAt, &m.LastRetryAt, &m.InitiatedAt, &m.CompletedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return toDomainModel(m), nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		var m TransactionModel
		err := row.Scan(
			&m.ID, &m.Reference, &m.EmployeeID, &m.EmployeeName, &m.EmployeeNumber,
			&m.Phone, &m.Amount, &m.Remarks, &m.Occasion, &m.Status,
			&m.ConversationID, &m.Receipt, &m.ResponseCode, &m.ResponseDescription, &m.FailureReason,
			&m.AttemptCount, &m.NextRetryAt, &m.LastRetryAt, &m.InitiatedAt, &m.CompletedAt,
		)
		return toDomainModel(m), err
	})

	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}
