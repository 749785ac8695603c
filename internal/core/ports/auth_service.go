package ports

import (
	"context"
	"time"

	"github.com/zabank/ledger-api/internal/core/domain"
)

// AuthService issues and revokes session tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// TokenRevoker remembers logged-out token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
