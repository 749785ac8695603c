package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
	"github.com/zabank/ledger-api/internal/core/validate"
)

const (
	accountNumberMin = 100000
	accountNumberMax = 999999
	// maxAccountNumberDraws bounds the redraws when a generated number is taken.
	maxAccountNumberDraws = 20
)

var errAccountNumbersExhausted = errors.New("could not draw a free account number")

// AccountNumberFunc draws a candidate account number.
type AccountNumberFunc func() (string, error)

type RegistrationService struct {
	users      ports.UserStore
	writes     WriteSerializer
	nextNumber AccountNumberFunc
	bcryptCost int
	logger     zerolog.Logger
}

func NewRegistrationService(users ports.UserStore, writes WriteSerializer, logger zerolog.Logger) *RegistrationService {
	if writes == nil {
		writes = InlineWrites()
	}
	return &RegistrationService{
		users:      users,
		writes:     writes,
		nextNumber: randomAccountNumber,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
}

// Register validates the form, enforces username and ID-number uniqueness and
// stores a new zero-balance account under a freshly drawn account number.
func (s *RegistrationService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegistrationResult, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	var result *ports.RegistrationResult
	err := s.writes.Do(ctx, func(ctx context.Context) error {
		registry, err := s.users.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}

		if _, exists := registry.Get(in.Username); exists {
			return domain.ErrDuplicateUsername
		}
		if registry.HasIDNumber(in.IDNumber) {
			return domain.ErrDuplicateIDNumber
		}

		number, err := s.drawAccountNumber(registry)
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		registry.Put(&domain.Account{
			Username:      in.Username,
			Name:          in.Name,
			Surname:       in.Surname,
			Phone:         in.Phone,
			IDNumber:      in.IDNumber,
			Balance:       decimal.Zero,
			AccountNumber: number,
			PasswordHash:  string(hash),
		})
		if err := s.users.SaveAll(ctx, registry); err != nil {
			return fmt.Errorf("save users: %w", err)
		}

		result = &ports.RegistrationResult{Username: in.Username, AccountNumber: number}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("username", result.Username).Str("account_number", result.AccountNumber).Msg("account registered")
	return result, nil
}

// validateRegistration runs the format checks in order and stops at the first failure.
func validateRegistration(in ports.RegisterInput) error {
	switch {
	case !validate.IsValidName(in.Name):
		return domain.ValidationError("name must contain only letters (no numbers or special characters)")
	case !validate.IsValidName(in.Surname):
		return domain.ValidationError("surname must contain only letters (no numbers or special characters)")
	case !validate.IsValidPhone(in.Phone):
		return domain.ValidationError("invalid phone number, use format +27821234567")
	case !validate.IsValidID(in.IDNumber):
		return domain.ValidationError("invalid ID number, must be a 13-digit number")
	case !validate.IsValidUsername(in.Username):
		return domain.ValidationError("username must contain at least one letter and only letters or digits")
	case in.Password == "":
		return domain.ValidationError("password is required")
	}
	return nil
}

// drawAccountNumber draws until it finds a number no account holds yet.
func (s *RegistrationService) drawAccountNumber(registry *domain.Registry) (string, error) {
	for i := 0; i < maxAccountNumberDraws; i++ {
		number, err := s.nextNumber()
		if err != nil {
			return "", fmt.Errorf("draw account number: %w", err)
		}
		if _, taken := registry.FindByAccountNumber(number); !taken {
			return number, nil
		}
		s.logger.Debug().Str("account_number", number).Msg("account number collision, redrawing")
	}
	return "", errAccountNumbersExhausted
}

// randomAccountNumber draws uniformly from [100000, 999999].
func randomAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(accountNumberMax-accountNumberMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+accountNumberMin), nil
}
