package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
)

const defaultCurrency = "ZAR"

// Amount bounds. Exponents are checked before any rescaling so that inputs
// like "1e20000000" are rejected without materialising the coefficient.
const (
	maxAmountScale    = 8
	minAmountExponent = -18
	maxAmountExponent = 12
)

var maxAmount = decimal.New(1, maxAmountExponent)

type ledgerService struct {
	users     ports.UserStore
	journal   ports.TransactionLog
	publisher ports.EventPublisher
	writes    WriteSerializer
	currency  string
	now       func() time.Time
	log       zerolog.Logger
}

// LedgerOption customises a ledger service.
type LedgerOption func(*ledgerService)

// WithPublisher announces every recorded transaction through p.
func WithPublisher(p ports.EventPublisher) LedgerOption {
	return func(s *ledgerService) { s.publisher = p }
}

// WithWriteSerializer replaces the inline read-modify-write execution.
func WithWriteSerializer(w WriteSerializer) LedgerOption {
	return func(s *ledgerService) { s.writes = w }
}

// WithCurrency sets the unit printed in transaction details.
func WithCurrency(code string) LedgerOption {
	return func(s *ledgerService) {
		if code != "" {
			s.currency = code
		}
	}
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) { s.now = now }
}

// NewLedgerService returns a LedgerService backed by the given stores.
func NewLedgerService(users ports.UserStore, journal ports.TransactionLog, log zerolog.Logger, opts ...LedgerOption) ports.LedgerService {
	s := &ledgerService{
		users:    users,
		journal:  journal,
		writes:   InlineWrites(),
		currency: defaultCurrency,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deposit credits the caller's balance. Deposits never fail on balance bounds.
func (s *ledgerService) Deposit(ctx context.Context, username, amount string) (*ports.LedgerResult, error) {
	if username == "" {
		return nil, domain.ErrNotAuthenticated
	}
	amt, err := parseAmount(amount, "deposit")
	if err != nil {
		return nil, err
	}

	var result *ports.LedgerResult
	err = s.writes.Do(ctx, func(ctx context.Context) error {
		registry, acct, err := s.loadActor(ctx, username)
		if err != nil {
			return err
		}

		acct.Balance = acct.Balance.Add(amt)
		tx := domain.Transaction{
			Timestamp:          s.now(),
			Type:               domain.TxDeposit,
			Amount:             amt,
			DestinationAccount: acct.AccountNumber,
			Details:            fmt.Sprintf("Account %s deposited %s %s", acct.AccountNumber, amt.String(), s.currency),
		}
		if err := s.commit(ctx, registry, tx); err != nil {
			return err
		}
		result = &ports.LedgerResult{AccountNumber: acct.AccountNumber, Balance: acct.Balance, Transaction: tx}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	return result, nil
}

// Withdraw debits the caller's balance when it covers amount.
func (s *ledgerService) Withdraw(ctx context.Context, username, amount string) (*ports.LedgerResult, error) {
	if username == "" {
		return nil, domain.ErrNotAuthenticated
	}
	amt, err := parseAmount(amount, "withdrawal")
	if err != nil {
		return nil, err
	}

	var result *ports.LedgerResult
	err = s.writes.Do(ctx, func(ctx context.Context) error {
		registry, acct, err := s.loadActor(ctx, username)
		if err != nil {
			return err
		}
		if acct.Balance.LessThan(amt) {
			return domain.ErrInsufficientBalance
		}

		acct.Balance = acct.Balance.Sub(amt)
		tx := domain.Transaction{
			Timestamp:     s.now(),
			Type:          domain.TxWithdrawal,
			Amount:        amt,
			SourceAccount: acct.AccountNumber,
			Details:       fmt.Sprintf("Account %s withdrew %s %s", acct.AccountNumber, amt.String(), s.currency),
		}
		if err := s.commit(ctx, registry, tx); err != nil {
			return err
		}
		result = &ports.LedgerResult{AccountNumber: acct.AccountNumber, Balance: acct.Balance, Transaction: tx}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	return result, nil
}

// Transfer moves amount from the caller to the account holding
// recipientAccount. Both balances change in memory and reach the store in a
// single SaveAll, or neither does.
func (s *ledgerService) Transfer(ctx context.Context, username, amount, recipientAccount string) (*ports.LedgerResult, error) {
	if username == "" {
		return nil, domain.ErrNotAuthenticated
	}
	amt, err := parseAmount(amount, "transfer")
	if err != nil {
		return nil, err
	}
	recipientAccount = strings.TrimSpace(recipientAccount)

	var result *ports.LedgerResult
	err = s.writes.Do(ctx, func(ctx context.Context) error {
		registry, sender, err := s.loadActor(ctx, username)
		if err != nil {
			return err
		}
		if sender.Balance.LessThan(amt) {
			return domain.ErrInsufficientBalance
		}
		recipient, ok := registry.FindByAccountNumber(recipientAccount)
		if !ok {
			return domain.ErrRecipientNotFound
		}

		sender.Balance = sender.Balance.Sub(amt)
		recipient.Balance = recipient.Balance.Add(amt)
		tx := domain.Transaction{
			Timestamp:          s.now(),
			Type:               domain.TxTransfer,
			Amount:             amt,
			SourceAccount:      sender.AccountNumber,
			DestinationAccount: recipient.AccountNumber,
			Details: fmt.Sprintf("Account %s transferred %s %s to Account %s",
				sender.AccountNumber, amt.String(), s.currency, recipient.AccountNumber),
		}
		if err := s.commit(ctx, registry, tx); err != nil {
			return err
		}
		result = &ports.LedgerResult{AccountNumber: sender.AccountNumber, Balance: sender.Balance, Transaction: tx}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	return result, nil
}

// Account returns the caller's dashboard view.
func (s *ledgerService) Account(ctx context.Context, username string) (*ports.AccountView, error) {
	if username == "" {
		return nil, domain.ErrNotAuthenticated
	}
	_, acct, err := s.loadActor(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	return &ports.AccountView{
		Username:      acct.Username,
		Name:          acct.Name,
		Surname:       acct.Surname,
		Phone:         acct.Phone,
		AccountNumber: acct.AccountNumber,
		Balance:       acct.Balance,
	}, nil
}

// History returns every journal entry the caller's account took part in, in log order.
func (s *ledgerService) History(ctx context.Context, username string) ([]domain.Transaction, error) {
	if username == "" {
		return nil, domain.ErrNotAuthenticated
	}
	_, acct, err := s.loadActor(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	all, err := s.journal.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("history: load transactions: %w", err)
	}

	out := make([]domain.Transaction, 0)
	for _, tx := range all {
		if tx.Involves(acct.AccountNumber) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// loadActor reads the full registry and resolves the acting account. A
// session whose user is no longer registered counts as unauthenticated.
func (s *ledgerService) loadActor(ctx context.Context, username string) (*domain.Registry, *domain.Account, error) {
	registry, err := s.users.LoadAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	acct, ok := registry.Get(username)
	if !ok {
		return nil, nil, domain.ErrNotAuthenticated
	}
	return registry, acct, nil
}

// commit writes the registry back, then journals tx. The journal entry is
// only appended once the registry write has succeeded.
func (s *ledgerService) commit(ctx context.Context, registry *domain.Registry, tx domain.Transaction) error {
	if err := s.users.SaveAll(ctx, registry); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	if err := s.journal.Append(ctx, tx); err != nil {
		s.log.Error().Err(err).Str("type", string(tx.Type)).Msg("balance persisted but transaction not journaled")
		return fmt.Errorf("append transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, tx); err != nil {
			s.log.Warn().Err(err).Str("type", string(tx.Type)).Msg("failed to publish transaction event")
		}
	}

	s.log.Info().
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Str("source", tx.SourceAccount).
		Str("destination", tx.DestinationAccount).
		Msg("transaction recorded")
	return nil
}

// parseAmount accepts a strictly positive decimal in textual form.
func parseAmount(raw, operation string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domain.InvalidAmount("invalid amount, please enter a numeric value")
	}
	if !amt.IsPositive() {
		return decimal.Zero, domain.InvalidAmount(operation + " amount must be positive")
	}
	if amt.Exponent() < minAmountExponent || amt.Exponent() > maxAmountExponent {
		return decimal.Zero, domain.InvalidAmount(operation + " amount is out of range")
	}
	if amt.GreaterThan(maxAmount) {
		return decimal.Zero, domain.InvalidAmount(fmt.Sprintf("%s amount must not exceed %s", operation, maxAmount.String()))
	}
	if !amt.Equal(amt.Truncate(maxAmountScale)) {
		return decimal.Zero, domain.InvalidAmount(fmt.Sprintf("%s amount supports at most %d decimal places", operation, maxAmountScale))
	}
	return amt, nil
}
