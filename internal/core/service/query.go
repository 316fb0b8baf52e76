package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// QueryService serves read-only ledger lookups.
type QueryService struct {
	repo ports.TransactionRepository
}

func NewQueryService(repo ports.TransactionRepository) *QueryService {
	return &QueryService{repo: repo}
}

func (s *QueryService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *QueryService) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	return s.repo.FindByReference(ctx, reference)
}

func (s *QueryService) List(ctx context.Context, filter ports.TransactionFilter) ([]*domain.Transaction, error) {
	return s.repo.List(ctx, filter)
}
