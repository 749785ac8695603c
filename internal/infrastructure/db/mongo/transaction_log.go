package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
	"github.com/zabank/ledger-api/internal/metrics"
)

// TransactionLog implements ports.TransactionLog over the transactions
// collection. Documents are only ever inserted.
type TransactionLog struct {
	col *mongo.Collection
	log zerolog.Logger
}

var _ ports.TransactionLog = (*TransactionLog)(nil)

func NewTransactionLog(db *mongo.Database, log zerolog.Logger) *TransactionLog {
	return &TransactionLog{
		col: db.Collection(collectionTransactions),
		log: log.With().Str("store", collectionTransactions).Logger(),
	}
}

type transactionDocument struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty"`
	Timestamp          time.Time            `bson:"timestamp"`
	Type               string               `bson:"type"`
	Amount             primitive.Decimal128 `bson:"amount"`
	SourceAccount      string               `bson:"source_account,omitempty"`
	DestinationAccount string               `bson:"destination_account,omitempty"`
	Details            string               `bson:"details"`
}

// Append inserts tx as a new document.
func (l *TransactionLog) Append(ctx context.Context, tx domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	amount, err := primitive.ParseDecimal128(tx.Amount.String())
	if err != nil {
		return fmt.Errorf("encode amount: %w", err)
	}
	doc := transactionDocument{
		Timestamp:          tx.Timestamp.UTC(),
		Type:               string(tx.Type),
		Amount:             amount,
		SourceAccount:      tx.SourceAccount,
		DestinationAccount: tx.DestinationAccount,
		Details:            tx.Details,
	}
	if _, err := l.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// LoadAll returns every transaction in insertion order.
func (l *TransactionLog) LoadAll(ctx context.Context) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := l.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}

	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		amount, err := decimal.NewFromString(d.Amount.String())
		if err != nil {
			l.log.Warn().Err(err).Str("id", d.ID.Hex()).Msg("skipping transaction with unreadable amount")
			metrics.StoreMalformedLinesTotal.WithLabelValues("transactions").Inc()
			continue
		}
		out = append(out, domain.Transaction{
			Timestamp:          d.Timestamp.Local(),
			Type:               domain.TransactionType(d.Type),
			Amount:             amount,
			SourceAccount:      d.SourceAccount,
			DestinationAccount: d.DestinationAccount,
			Details:            d.Details,
		})
	}
	return out, nil
}

// EnsureIndexes creates the ordering and participant indexes.
func (l *TransactionLog) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "source_account", Value: 1}}},
		{Keys: bson.D{{Key: "destination_account", Value: 1}}},
	}

	_, err := l.col.Indexes().CreateMany(ctx, indexes)
	return err
}
