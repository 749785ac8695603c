package ports

import (
	"context"

	"github.com/zabank/ledger-api/internal/core/domain"
)

// UserStore persists the whole account registry. Callers read the full
// registry, mutate it in memory and write it back; there is no partial update.
type UserStore interface {
	LoadAll(ctx context.Context) (*domain.Registry, error)
	SaveAll(ctx context.Context, registry *domain.Registry) error
}
