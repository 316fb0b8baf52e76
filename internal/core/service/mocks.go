package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// MockTransactionRepository
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFn               func(ctx context.Context, tx *domain.Transaction) error
	UpdateFn               func(ctx context.Context, tx *domain.Transaction) error
	FindByIDFn             func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByReferenceFn      func(ctx context.Context, reference string) (*domain.Transaction, error)
	FindByConversationIDFn func(ctx context.Context, conversationID string) (*domain.Transaction, error)
	ListFn                 func(ctx context.Context, filter ports.TransactionFilter) ([]*domain.Transaction, error)
	FindDueRetriesFn       func(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.Transaction, error)
	FindStaleAcceptedFn    func(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error)
	StatsFn                func(ctx context.Context) (*ports.LedgerStats, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tx)
	}
	cp := *tx
	m.transactions[tx.ID.String()] = &cp
	return nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, tx)
	}
	cp := *tx
	m.transactions[tx.ID.String()] = &cp
	return nil
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	if tx, ok := m.transactions[id.String()]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, &domain.DomainError{Code: domain.ErrCodeTransactionNotFound, Message: "transaction not found"}
}

func (m *MockTransactionRepository) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByReferenceFn != nil {
		return m.FindByReferenceFn(ctx, reference)
	}
	for _, tx := range m.transactions {
		if tx.Reference == reference {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, &domain.DomainError{Code: domain.ErrCodeTransactionNotFound, Message: "transaction not found"}
}

func (m *MockTransactionRepository) FindByConversationID(ctx context.Context, conversationID string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByConversationIDFn != nil {
		return m.FindByConversationIDFn(ctx, conversationID)
	}
	for _, tx := range m.transactions {
		if tx.ConversationID != nil && *tx.ConversationID == conversationID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, &domain.DomainError{Code: domain.ErrCodeTransactionNotFound, Message: "transaction not found"}
}

func (m *MockTransactionRepository) List(ctx context.Context, filter ports.TransactionFilter) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	var out []*domain.Transaction
	for _, tx := range m.transactions {
		if filter.EmployeeID != "" && tx.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTransactionRepository) FindDueRetries(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindDueRetriesFn != nil {
		return m.FindDueRetriesFn(ctx, now, maxAttempts, limit)
	}
	var out []*domain.Transaction
	for _, tx := range m.transactions {
		if tx.Status != domain.StatusFailed || tx.AttemptCount >= maxAttempts {
			continue
		}
		if tx.NextRetryAt != nil && tx.NextRetryAt.After(now) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) FindStaleAccepted(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindStaleAcceptedFn != nil {
		return m.FindStaleAcceptedFn(ctx, olderThan, limit)
	}
	cutoff := time.Now().Add(-olderThan)
	var out []*domain.Transaction
	for _, tx := range m.transactions {
		if tx.Status != domain.StatusAccepted || tx.InitiatedAt.After(cutoff) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) Stats(ctx context.Context) (*ports.LedgerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	stats := &ports.LedgerStats{}
	for _, tx := range m.transactions {
		stats.TotalPayments++
		stats.TotalAmount += tx.Amount
		switch tx.Status {
		case domain.StatusCompleted:
			stats.SuccessfulPayments++
			stats.SuccessfulAmount += tx.Amount
		case domain.StatusAccepted:
			stats.AcceptedPayments++
		case domain.StatusPending:
			stats.PendingPayments++
		case domain.StatusFailed, domain.StatusExhausted:
			stats.FailedPayments++
		}
		if stats.LastPaymentDate == nil || tx.InitiatedAt.After(*stats.LastPaymentDate) {
			at := tx.InitiatedAt
			stats.LastPaymentDate = &at
		}
	}
	if stats.TotalPayments > 0 {
		stats.AveragePayment = float64(stats.TotalAmount) / float64(stats.TotalPayments)
	}
	return stats, nil
}

// Get returns the stored copy of a transaction for assertions.
func (m *MockTransactionRepository) Get(id uuid.UUID) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.transactions[id.String()]; ok {
		cp := *tx
		return &cp
	}
	return nil
}

// Seed stores a transaction directly, bypassing Create hooks.
func (m *MockTransactionRepository) Seed(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[tx.ID.String()] = &cp
}

func (m *MockTransactionRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

// MockGatewayPort
type MockGatewayPort struct {
	mu    sync.Mutex
	calls map[string]int
	Delay time.Duration

	AuthenticateFn func(ctx context.Context) (*domain.AccessToken, error)
	SubmitPayoutFn func(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error)
	QueryStatusFn  func(ctx context.Context, conversationID string) (*domain.PayoutStatus, error)
}

func (m *MockGatewayPort) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockGatewayPort) GetCalls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockGatewayPort) Authenticate(ctx context.Context) (*domain.AccessToken, error) {
	m.inc("Authenticate")
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx)
	}
	return &domain.AccessToken{Value: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *MockGatewayPort) SubmitPayout(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
	m.inc("SubmitPayout")
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.SubmitPayoutFn != nil {
		return m.SubmitPayoutFn(ctx, req)
	}
	return &domain.PayoutAck{
		ConversationID:           "AG_" + uuid.NewString()[:8],
		OriginatorConversationID: req.Reference,
		ResponseCode:             domain.GatewaySuccessCode,
		ResponseDescription:      "Accept the service request successfully.",
	}, nil
}

func (m *MockGatewayPort) QueryStatus(ctx context.Context, conversationID string) (*domain.PayoutStatus, error) {
	m.inc("QueryStatus")
	if m.QueryStatusFn != nil {
		return m.QueryStatusFn(ctx, conversationID)
	}
	return &domain.PayoutStatus{
		ConversationID: conversationID,
		Settled:        true,
		Succeeded:      true,
		Receipt:        "SFK1XYZ9Q2",
		ResultCode:     domain.GatewaySuccessCode,
		CompletedAt:    time.Now(),
	}, nil
}
