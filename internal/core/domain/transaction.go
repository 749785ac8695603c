package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType names the ledger operation that produced a record.
type TransactionType string

const (
	TxDeposit    TransactionType = "Deposit"
	TxWithdrawal TransactionType = "Withdrawal"
	TxTransfer   TransactionType = "Transfer"
)

// Transaction is an immutable journal entry. SourceAccount and
// DestinationAccount hold bare account numbers and are empty when the
// operation has no such side.
type Transaction struct {
	Timestamp          time.Time       `json:"timestamp"`
	Type               TransactionType `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	SourceAccount      string          `json:"source_account,omitempty"`
	DestinationAccount string          `json:"destination_account,omitempty"`
	Details            string          `json:"details"`
}

// Involves reports whether accountNumber took part in the transaction.
// Records without participants (written before participants were tracked)
// match when the number appears in the details text.
func (t Transaction) Involves(accountNumber string) bool {
	if accountNumber == "" {
		return false
	}
	if t.SourceAccount == "" && t.DestinationAccount == "" {
		return strings.Contains(t.Details, accountNumber)
	}
	return t.SourceAccount == accountNumber || t.DestinationAccount == accountNumber
}
