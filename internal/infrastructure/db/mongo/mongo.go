package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second

	collectionAccounts     = "accounts"
	collectionTransactions = "transactions"
)

// Config captures the settings needed to reach the ledger database.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect opens a client, pings the primary and returns the ledger database.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes both ledger collections rely on.
func EnsureIndexes(ctx context.Context, accounts *AccountStore, transactions *TransactionLog) error {
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("accounts indexes: %w", err)
	}
	if err := transactions.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("transactions indexes: %w", err)
	}
	return nil
}
