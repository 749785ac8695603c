package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func newTestRegistration(store *stubUserStore) *RegistrationService {
	svc := NewRegistrationService(store, nil, discardLogger)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func validInput(username, idNumber string) ports.RegisterInput {
	return ports.RegisterInput{
		Name:     "Alice",
		Surname:  "Smith",
		Phone:    "+27821234567",
		IDNumber: idNumber,
		Username: username,
		Password: "s3cret",
	}
}

func TestRegistrationService_Register_Success(t *testing.T) {
	store := newStubUserStore()
	svc := newTestRegistration(store)

	res, err := svc.Register(context.Background(), validInput("alice1", "9001015009087"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !sixDigits.MatchString(res.AccountNumber) {
		t.Errorf("account number must be 6 digits, got %q", res.AccountNumber)
	}

	acct := store.account("alice1")
	if acct == nil {
		t.Fatal("account not persisted")
	}
	if !acct.Balance.IsZero() {
		t.Errorf("expected zero balance, got %s", acct.Balance)
	}
	if acct.AccountNumber != res.AccountNumber {
		t.Errorf("stored account number %q differs from result %q", acct.AccountNumber, res.AccountNumber)
	}
	if acct.PasswordHash == "s3cret" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegistrationService_Register_ValidationShortCircuits(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ports.RegisterInput)
		want   string
	}{
		{"bad name", func(in *ports.RegisterInput) { in.Name = "Al1ce"; in.Phone = "bad" }, "name must contain only letters (no numbers or special characters)"},
		{"bad surname", func(in *ports.RegisterInput) { in.Surname = "Van Wyk"; in.Phone = "bad" }, "surname must contain only letters (no numbers or special characters)"},
		{"bad phone", func(in *ports.RegisterInput) { in.Phone = "0821234567"; in.IDNumber = "1" }, "invalid phone number, use format +27821234567"},
		{"bad id", func(in *ports.RegisterInput) { in.IDNumber = "123"; in.Username = "123" }, "invalid ID number, must be a 13-digit number"},
		{"numeric username", func(in *ports.RegisterInput) { in.Username = "12345" }, "username must contain at least one letter and only letters or digits"},
		{"empty password", func(in *ports.RegisterInput) { in.Password = "" }, "password is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubUserStore()
			svc := newTestRegistration(store)

			in := validInput("alice1", "9001015009087")
			tc.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if err.Error() != tc.want {
				t.Errorf("message: want %q, got %q", tc.want, err.Error())
			}
			if store.saveCalls != 0 {
				t.Errorf("nothing must be written on validation failure")
			}
		})
	}
}

func TestRegistrationService_Register_DuplicateUsername(t *testing.T) {
	store := newStubUserStore()
	svc := newTestRegistration(store)

	if _, err := svc.Register(context.Background(), validInput("bob", "9001015009087")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), validInput("bob", "8001015009087"))
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestRegistrationService_Register_DuplicateIDNumber(t *testing.T) {
	store := newStubUserStore()
	svc := newTestRegistration(store)

	if _, err := svc.Register(context.Background(), validInput("carol", "9001015009087")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	saves := store.saveCalls

	_, err := svc.Register(context.Background(), validInput("dave", "9001015009087"))
	if !errors.Is(err, domain.ErrDuplicateIDNumber) {
		t.Fatalf("expected ErrDuplicateIDNumber, got %v", err)
	}
	if store.saveCalls != saves {
		t.Error("no record may be written for a duplicate ID number")
	}
	if store.account("dave") != nil {
		t.Error("dave must not be registered")
	}
}

func TestRegistrationService_Register_RedrawsTakenAccountNumber(t *testing.T) {
	store := newStubUserStore(&domain.Account{Username: "erin", IDNumber: "7001015009087", AccountNumber: "111111"})
	svc := newTestRegistration(store)

	draws := []string{"111111", "111111", "222222"}
	svc.nextNumber = func() (string, error) {
		n := draws[0]
		draws = draws[1:]
		return n, nil
	}

	res, err := svc.Register(context.Background(), validInput("frank", "9001015009087"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.AccountNumber != "222222" {
		t.Errorf("expected redraw to 222222, got %s", res.AccountNumber)
	}
}

func TestRegistrationService_Register_AccountNumbersExhausted(t *testing.T) {
	store := newStubUserStore(&domain.Account{Username: "erin", IDNumber: "7001015009087", AccountNumber: "111111"})
	svc := newTestRegistration(store)
	svc.nextNumber = func() (string, error) { return "111111", nil }

	_, err := svc.Register(context.Background(), validInput("frank", "9001015009087"))
	if !errors.Is(err, errAccountNumbersExhausted) {
		t.Fatalf("expected errAccountNumbersExhausted, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Error("nothing must be written when no number is available")
	}
}

func TestRegistrationService_Register_StoreError(t *testing.T) {
	store := newStubUserStore()
	store.loadErr = errors.New("disk unavailable")
	svc := newTestRegistration(store)

	_, err := svc.Register(context.Background(), validInput("alice1", "9001015009087"))
	if err == nil {
		t.Fatal("expected error when store fails, got nil")
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		t.Errorf("storage failures must not surface as domain errors, got %v", derr)
	}
}

func TestRandomAccountNumber_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, err := randomAccountNumber()
		if err != nil {
			t.Fatalf("randomAccountNumber: %v", err)
		}
		if !sixDigits.MatchString(n) || n < "100000" || n > "999999" {
			t.Fatalf("out of range: %s", n)
		}
	}
}
