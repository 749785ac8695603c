package flatfile

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/metrics"
)

const (
	// txFields is the column count of a transactions line:
	// date,type,amount,source_label,dest_label,details
	txFields = 6

	timestampLayout = "2006-01-02 15:04:05.000000"
	accountPrefix   = "Account "
	fieldSeparator  = ", "
)

// TransactionLog appends one line per transaction and never rewrites the file.
type TransactionLog struct {
	path string
	log  zerolog.Logger
}

func NewTransactionLog(path string, log zerolog.Logger) *TransactionLog {
	return &TransactionLog{path: path, log: log.With().Str("store", "transactions").Logger()}
}

// Append opens the file in append mode and writes tx as a single line.
func (l *TransactionLog) Append(ctx context.Context, tx domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	if _, err := f.WriteString(formatTransactionLine(tx) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", l.path, err)
	}
	return f.Close()
}

// LoadAll returns every readable record in file order.
func (l *TransactionLog) LoadAll(ctx context.Context) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := readLines(l.path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(lines))
	for i, line := range lines {
		tx, err := parseTransactionLine(line)
		if err != nil {
			l.log.Warn().Err(err).Int("line", i+1).Msg("skipping malformed transaction record")
			metrics.StoreMalformedLinesTotal.WithLabelValues("transactions").Inc()
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func formatTransactionLine(tx domain.Transaction) string {
	return strings.Join([]string{
		tx.Timestamp.In(time.Local).Format(timestampLayout),
		string(tx.Type),
		tx.Amount.String(),
		accountLabel(tx.SourceAccount),
		accountLabel(tx.DestinationAccount),
		tx.Details,
	}, fieldSeparator)
}

// parseTransactionLine accepts both "," and ", " separated lines. Anything
// past the sixth field belongs to the details text.
func parseTransactionLine(line string) (domain.Transaction, error) {
	parts := strings.SplitN(line, ",", txFields)
	if len(parts) < txFields {
		return domain.Transaction{}, fmt.Errorf("expected %d fields, got %d", txFields, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// Fractional seconds are optional when parsing.
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", parts[0], time.Local)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("bad date %q: %w", parts[0], err)
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("bad amount %q: %w", parts[2], err)
	}

	return domain.Transaction{
		Timestamp:          ts,
		Type:               domain.TransactionType(parts[1]),
		Amount:             amount,
		SourceAccount:      accountFromLabel(parts[3]),
		DestinationAccount: accountFromLabel(parts[4]),
		Details:            parts[5],
	}, nil
}

func accountLabel(number string) string {
	if number == "" {
		return ""
	}
	return accountPrefix + number
}

func accountFromLabel(label string) string {
	return strings.TrimSpace(strings.TrimPrefix(label, accountPrefix))
}
