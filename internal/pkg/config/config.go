package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	Currency  string        `env:"CURRENCY,  default=ZAR"`

	Ledger LedgerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	AMQP   AMQPConfig
}

type LedgerConfig struct {
	Backend          string `env:"STORAGE_BACKEND,         default=file"`
	UsersFile        string `env:"USERS_FILE,              default=users.txt"`
	TransactionsFile string `env:"TRANSACTIONS_FILE,       default=transactions.txt"`
	SerializeWrites  bool   `env:"LEDGER_SERIALIZE_WRITES, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=bank_ledger"`
}

// RedisConfig is optional; an empty address keeps revocations in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// AMQPConfig is optional; an empty URL disables event publishing.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE, default=bank.events"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.Ledger.Backend {
	case BackendFile, BackendMongo:
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.Ledger.Backend)
	}
	return nil
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
