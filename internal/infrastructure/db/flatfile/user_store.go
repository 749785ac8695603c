package flatfile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/metrics"
)

// userFields is the column count of a users line:
// name,surname,phone,id_number,username,balance,account_number,password
const userFields = 8

// UserStore keeps the registry in a single file rewritten on every save.
// It does no locking: two concurrent load/save cycles can lose an update.
type UserStore struct {
	path string
	log  zerolog.Logger
}

func NewUserStore(path string, log zerolog.Logger) *UserStore {
	return &UserStore{path: path, log: log.With().Str("store", "users").Logger()}
}

// LoadAll reads every well-formed line into a registry. Malformed lines are
// skipped and reported; they never fail the load.
func (s *UserStore) LoadAll(ctx context.Context) (*domain.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := readLines(s.path)
	if err != nil {
		return nil, err
	}

	registry := domain.NewRegistry()
	for i, line := range lines {
		acct, ok := parseUserLine(line)
		if !ok {
			s.log.Warn().Int("line", i+1).Msg("skipping malformed user record")
			metrics.StoreMalformedLinesTotal.WithLabelValues("users").Inc()
			continue
		}
		registry.Put(acct)
	}
	return registry, nil
}

// SaveAll overwrites the file with the registry, one account per line in
// registry order.
func (s *UserStore) SaveAll(ctx context.Context, registry *domain.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	accounts := registry.Accounts()
	lines := make([]string, 0, len(accounts))
	for _, a := range accounts {
		lines = append(lines, formatUserLine(a))
	}
	return replaceFile(s.path, lines)
}

func parseUserLine(line string) (*domain.Account, bool) {
	parts := strings.Split(line, ",")
	if len(parts) != userFields {
		return nil, false
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(parts[5]))
	if err != nil {
		return nil, false
	}
	return &domain.Account{
		Name:          parts[0],
		Surname:       parts[1],
		Phone:         parts[2],
		IDNumber:      parts[3],
		Username:      parts[4],
		Balance:       balance,
		AccountNumber: parts[6],
		PasswordHash:  parts[7],
	}, true
}

func formatUserLine(a *domain.Account) string {
	return strings.Join([]string{
		a.Name,
		a.Surname,
		a.Phone,
		a.IDNumber,
		a.Username,
		formatBalance(a.Balance),
		a.AccountNumber,
		a.PasswordHash,
	}, ",")
}

// formatBalance writes the shortest decimal form with at least one fractional
// digit, so files produced by earlier versions of the app ("0.0", "150.5")
// are written back unchanged.
func formatBalance(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
