// @title           Bank Ledger API
// @version         1.0
// @description     Registration, authentication and balance operations for single-currency accounts.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/zabank/ledger-api/internal/api"
	"github.com/zabank/ledger-api/internal/core/ports"
	"github.com/zabank/ledger-api/internal/core/service"
	"github.com/zabank/ledger-api/internal/infrastructure/db/flatfile"
	"github.com/zabank/ledger-api/internal/infrastructure/db/memory"
	mongostore "github.com/zabank/ledger-api/internal/infrastructure/db/mongo"
	redisstore "github.com/zabank/ledger-api/internal/infrastructure/db/redis"
	"github.com/zabank/ledger-api/internal/infrastructure/http/handlers"
	"github.com/zabank/ledger-api/internal/infrastructure/queue"
	"github.com/zabank/ledger-api/internal/pkg/config"
	"github.com/zabank/ledger-api/pkg/logger"
	"github.com/zabank/ledger-api/pkg/rabbitmq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "ledger-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("ledger api stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var (
		users   ports.UserStore
		journal ports.TransactionLog
		checks  []handlers.Check
	)

	// --- Ledger storage ---
	switch cfg.Ledger.Backend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		accounts := mongostore.NewAccountStore(db, logger.For("mongo"))
		transactions := mongostore.NewTransactionLog(db, logger.For("mongo"))
		if err := mongostore.EnsureIndexes(ctx, accounts, transactions); err != nil {
			return err
		}
		users, journal = accounts, transactions
		checks = append(checks, handlers.MongoCheck(db))
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongo ledger storage")
	default:
		users = flatfile.NewUserStore(cfg.Ledger.UsersFile, logger.For("flatfile"))
		journal = flatfile.NewTransactionLog(cfg.Ledger.TransactionsFile, logger.For("flatfile"))
		checks = append(checks,
			handlers.FileCheck("users_file", cfg.Ledger.UsersFile),
			handlers.FileCheck("transactions_file", cfg.Ledger.TransactionsFile),
		)
		log.Info().
			Str("users_file", cfg.Ledger.UsersFile).
			Str("transactions_file", cfg.Ledger.TransactionsFile).
			Msg("using flat-file ledger storage")
	}

	// --- Token revocation ---
	var revoker ports.TokenRevoker = memory.NewRevocationStore()
	redisCfg := redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if redisCfg.Enabled() {
		rdb, err := redisstore.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoker = redisstore.NewRevocationStore(rdb)
		checks = append(checks, handlers.RedisCheck(rdb))
	} else {
		log.Warn().Msg("REDIS_ADDR not set; logouts are kept in memory")
	}

	// --- Event publishing ---
	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{Log: logger.For("rabbitmq")}
	if cfg.AMQP.URL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable; transaction events will not be published")
		} else {
			publisher = producer
			checks = append(checks, handlers.Check{Name: "rabbitmq", Ping: producer.Ping})
		}
	}
	defer publisher.Close()

	// --- Services ---
	writes := service.InlineWrites()
	if cfg.Ledger.SerializeWrites {
		// Outlives ctx so in-flight requests can finish during shutdown.
		queueCtx, cancelQueue := context.WithCancel(context.Background())
		defer cancelQueue()
		serializer := queue.NewSerializer(0, logger.For("queue"))
		serializer.Start(queueCtx)
		writes = serializer
		log.Info().Msg("store writes serialized through a single worker")
	}

	registration := service.NewRegistrationService(users, writes, logger.For("registration"))
	auth := service.NewAuthService(users, revoker, cfg.JWTSecret, cfg.TokenTTL)
	ledger := service.NewLedgerService(users, journal, logger.For("ledger"),
		service.WithPublisher(publisher),
		service.WithWriteSerializer(writes),
		service.WithCurrency(cfg.Currency),
	)

	e := api.NewRouter(api.Dependencies{
		Registration: registration,
		Auth:         auth,
		Ledger:       ledger,
		Revoker:      revoker,
		JWTSecret:    cfg.JWTSecret,
		Currency:     cfg.Currency,
		HealthChecks: checks,
		Log:          logger.For("http"),
	})

	// --- Serve until signalled ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("ledger api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
