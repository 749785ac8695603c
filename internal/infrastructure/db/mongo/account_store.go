package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// AccountStore implements ports.UserStore over the accounts collection.
// Like the file store it reads and writes the whole registry at once.
type AccountStore struct {
	col *mongo.Collection
	log zerolog.Logger
}

var _ ports.UserStore = (*AccountStore)(nil)

func NewAccountStore(db *mongo.Database, log zerolog.Logger) *AccountStore {
	return &AccountStore{
		col: db.Collection(collectionAccounts),
		log: log.With().Str("store", collectionAccounts).Logger(),
	}
}

type accountDocument struct {
	Username      string               `bson:"username"`
	Position      int                  `bson:"position"`
	Name          string               `bson:"name"`
	Surname       string               `bson:"surname"`
	Phone         string               `bson:"phone"`
	IDNumber      string               `bson:"id_number"`
	Balance       primitive.Decimal128 `bson:"balance"`
	AccountNumber string               `bson:"account_number"`
	PasswordHash  string               `bson:"password_hash"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

// LoadAll returns every account ordered by its registry position.
func (s *AccountStore) LoadAll(ctx context.Context) (*domain.Registry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}

	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	registry := domain.NewRegistry()
	for _, d := range docs {
		balance, err := decimal.NewFromString(d.Balance.String())
		if err != nil {
			s.log.Warn().Err(err).Str("username", d.Username).Msg("skipping account with unreadable balance")
			metrics.StoreMalformedLinesTotal.WithLabelValues("users").Inc()
			continue
		}
		registry.Put(&domain.Account{
			Username:      d.Username,
			Name:          d.Name,
			Surname:       d.Surname,
			Phone:         d.Phone,
			IDNumber:      d.IDNumber,
			Balance:       balance,
			AccountNumber: d.AccountNumber,
			PasswordHash:  d.PasswordHash,
		})
	}
	return registry, nil
}

// SaveAll upserts every account keyed on username. The bulk write runs inside
// a multi-document transaction so a transfer never persists one side only,
// which requires a replica set or sharded cluster.
func (s *AccountStore) SaveAll(ctx context.Context, registry *domain.Registry) error {
	accounts := registry.Accounts()
	if len(accounts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(accounts))
	for i, a := range accounts {
		balance, err := primitive.ParseDecimal128(a.Balance.String())
		if err != nil {
			return fmt.Errorf("encode balance for %s: %w", a.Username, err)
		}
		doc := accountDocument{
			Username:      a.Username,
			Position:      i,
			Name:          a.Name,
			Surname:       a.Surname,
			Phone:         a.Phone,
			IDNumber:      a.IDNumber,
			Balance:       balance,
			AccountNumber: a.AccountNumber,
			PasswordHash:  a.PasswordHash,
			UpdatedAt:     now,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"username": a.Username}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	session, err := s.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return s.col.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return fmt.Errorf("save accounts: %w", dup)
		}
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

// duplicateKeyError maps a unique index violation to the domain error for the
// index that collided. It returns nil for any other error.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	var messages []string
	var bulk mongo.BulkWriteException
	if errors.As(err, &bulk) {
		for _, we := range bulk.WriteErrors {
			messages = append(messages, we.Message)
		}
	}
	var write mongo.WriteException
	if errors.As(err, &write) {
		for _, we := range write.WriteErrors {
			messages = append(messages, we.Message)
		}
	}
	if len(messages) == 0 {
		messages = append(messages, err.Error())
	}

	for _, msg := range messages {
		switch {
		case strings.Contains(msg, "index: username_"):
			return domain.ErrDuplicateUsername
		case strings.Contains(msg, "index: id_number_"):
			return domain.ErrDuplicateIDNumber
		}
	}
	return domain.ErrDuplicateIDNumber
}

// EnsureIndexes creates the unique username and ID number indexes.
func (s *AccountStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "account_number", Value: 1}}},
		{Keys: bson.D{{Key: "position", Value: 1}}},
	}

	_, err := s.col.Indexes().CreateMany(ctx, indexes)
	return err
}
