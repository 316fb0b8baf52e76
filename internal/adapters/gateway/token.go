package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
)

// expirySkew is how early a token is considered stale, so an in-flight
// request never carries a credential that expires mid-call.
const expirySkew = 30 * time.Second

// tokenSource caches the gateway access token behind a single writer. All
// concurrent submissions in a window share one credential instead of racing
// to re-authenticate per call.
type tokenSource struct {
	mu          sync.Mutex
	cached      *domain.AccessToken
	authenticate func(ctx context.Context) (*domain.AccessToken, error)
}

func newTokenSource(authenticate func(ctx context.Context) (*domain.AccessToken, error)) *tokenSource {
	return &tokenSource{authenticate: authenticate}
}

// Token returns the cached credential, refreshing it under the lock when it
// is missing or within expirySkew of expiry. Holding the lock across the
// refresh means exactly one authentication call happens per expiry, no
// matter how many submissions ask concurrently.
func (s *tokenSource) Token(ctx context.Context) (*domain.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached.Valid(time.Now(), expirySkew) {
		return s.cached, nil
	}

	token, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	s.cached = token
	return token, nil
}

// Invalidate drops the cached token, forcing re-authentication on next use.
func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}
