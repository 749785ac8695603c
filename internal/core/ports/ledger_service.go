package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/zabank/ledger-api/internal/core/domain"
)

// LedgerResult describes the acting account after a successful operation.
type LedgerResult struct {
	AccountNumber string
	Balance       decimal.Decimal
	Transaction   domain.Transaction
}

// AccountView is the dashboard projection of an account (no credentials).
type AccountView struct {
	Username      string
	Name          string
	Surname       string
	Phone         string
	AccountNumber string
	Balance       decimal.Decimal
}

// LedgerService mutates balances on behalf of the authenticated user.
// Amounts are passed in their textual form and validated by the service.
type LedgerService interface {
	Deposit(ctx context.Context, username, amount string) (*LedgerResult, error)
	Withdraw(ctx context.Context, username, amount string) (*LedgerResult, error)
	Transfer(ctx context.Context, username, amount, recipientAccount string) (*LedgerResult, error)
	Account(ctx context.Context, username string) (*AccountView, error)
	History(ctx context.Context, username string) ([]domain.Transaction, error)
}
