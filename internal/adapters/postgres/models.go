package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/movaware/payout-engine/internal/core/domain"
)

// TransactionModel mirrors the transactions table row.
type TransactionModel struct {
	ID        uuid.UUID
	Reference string

	EmployeeID     string
	EmployeeName   string
	EmployeeNumber string
	Phone          string
	Amount         int64
	Remarks        string
	Occasion       string

	Status              string
	ConversationID      *string
	Receipt             *string
	ResponseCode        *string
	ResponseDescription *string
	FailureReason       *string

	AttemptCount int
	NextRetryAt  *time.Time
	LastRetryAt  *time.Time

	InitiatedAt time.Time
	CompletedAt *time.Time
}

func toDBModel(tx *domain.Transaction) TransactionModel {
	return TransactionModel{
		ID:                  tx.ID,
		Reference:           tx.Reference,
		EmployeeID:          tx.EmployeeID,
		EmployeeName:        tx.EmployeeName,
		EmployeeNumber:      tx.EmployeeNumber,
		Phone:               tx.Phone,
		Amount:              tx.Amount,
		Remarks:             tx.Remarks,
		Occasion:            tx.Occasion,
		Status:              string(tx.Status),
		ConversationID:      tx.ConversationID,
		Receipt:             tx.Receipt,
		ResponseCode:        tx.ResponseCode,
		ResponseDescription: tx.ResponseDescription,
		FailureReason:       tx.FailureReason,
		AttemptCount:        tx.AttemptCount,
		NextRetryAt:         tx.NextRetryAt,
		LastRetryAt:         tx.LastRetryAt,
		InitiatedAt:         tx.InitiatedAt,
		CompletedAt:         tx.CompletedAt,
	}
}

func toDomainModel(m TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:                  m.ID,
		Reference:           m.Reference,
		EmployeeID:          m.EmployeeID,
		EmployeeName:        m.EmployeeName,
		EmployeeNumber:      m.EmployeeNumber,
		Phone:               m.Phone,
		Amount:              m.Amount,
		Remarks:             m.Remarks,
		Occasion:            m.Occasion,
		Status:              domain.TransactionStatus(m.Status),
		ConversationID:      m.ConversationID,
		Receipt:             m.Receipt,
		ResponseCode:        m.ResponseCode,
		ResponseDescription: m.ResponseDescription,
		FailureReason:       m.FailureReason,
		AttemptCount:        m.AttemptCount,
		NextRetryAt:         m.NextRetryAt,
		LastRetryAt:         m.LastRetryAt,
		InitiatedAt:         m.InitiatedAt,
		CompletedAt:         m.CompletedAt,
	}
}
