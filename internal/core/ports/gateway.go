package ports

import (
	"context"

	"github.com/movaware/payout-engine/internal/core/domain"
)

// GatewayPort defines the behavior of the external disbursement gateway.
type GatewayPort interface {
	// Authenticate obtains a short-lived access credential. Implementations
	// are expected to cache it; callers treat every call as cheap.
	Authenticate(ctx context.Context) (*domain.AccessToken, error)

	// SubmitPayout sends a single B2C payment request. The returned ack is an
	// acceptance for asynchronous processing, not final settlement.
	SubmitPayout(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error)

	// QueryStatus asks the gateway for the settlement state of a previously
	// accepted payout, used when no result callback has arrived.
	QueryStatus(ctx context.Context, conversationID string) (*domain.PayoutStatus, error)
}
