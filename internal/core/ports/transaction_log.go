package ports

import (
	"context"

	"github.com/zabank/ledger-api/internal/core/domain"
)

// TransactionLog is the append-only journal of ledger operations.
type TransactionLog interface {
	Append(ctx context.Context, tx domain.Transaction) error
	LoadAll(ctx context.Context) ([]domain.Transaction, error)
}

// EventPublisher broadcasts recorded transactions to downstream consumers.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, tx domain.Transaction) error
}
