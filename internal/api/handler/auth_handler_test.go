package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
)

const validRegisterBody = `{"name":"Alice","surname":"Smith","phone":"+27821234567","id_number":"9001015009087","username":"alice1","password":"s3cret"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubRegistration{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegistrationResult, error) {
			if in.Username != "alice1" || in.IDNumber != "9001015009087" || in.Phone != "+27821234567" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.RegistrationResult{Username: in.Username, AccountNumber: "123456"}, nil
		},
	}
	h := NewAuthHandler(stub, nil, "ZAR")

	c, rec := newContext(http.MethodPost, "/auth/register", validRegisterBody, "")
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp registerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccountNumber != "123456" || resp.Username != "alice1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Register_ValidationFailures(t *testing.T) {
	cases := map[string]string{
		"digits in name": `{"name":"Al1ce","surname":"Smith","phone":"+27821234567","id_number":"9001015009087","username":"alice1","password":"x"}`,
		"bad phone":      `{"name":"Alice","surname":"Smith","phone":"0821234567","id_number":"9001015009087","username":"alice1","password":"x"}`,
		"short id":       `{"name":"Alice","surname":"Smith","phone":"+27821234567","id_number":"12345","username":"alice1","password":"x"}`,
		"numeric user":   `{"name":"Alice","surname":"Smith","phone":"+27821234567","id_number":"9001015009087","username":"12345","password":"x"}`,
		"no password":    `{"name":"Alice","surname":"Smith","phone":"+27821234567","id_number":"9001015009087","username":"alice1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &stubRegistration{registerFn: func(context.Context, ports.RegisterInput) (*ports.RegistrationResult, error) {
				t.Fatal("service must not be called")
				return nil, nil
			}}
			c, _ := newContext(http.MethodPost, "/auth/register", body, "")

			err := NewAuthHandler(stub, nil, "ZAR").Register(c)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAuthHandler_Register_DuplicatePassesThrough(t *testing.T) {
	stub := &stubRegistration{registerFn: func(context.Context, ports.RegisterInput) (*ports.RegistrationResult, error) {
		return nil, domain.ErrDuplicateIDNumber
	}}
	c, _ := newContext(http.MethodPost, "/auth/register", validRegisterBody, "")

	if err := NewAuthHandler(stub, nil, "ZAR").Register(c); !errors.Is(err, domain.ErrDuplicateIDNumber) {
		t.Fatalf("expected ErrDuplicateIDNumber, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.Account, error) {
			if username != "alice1" || password != "s3cret" {
				t.Fatalf("unexpected creds: %s %s", username, password)
			}
			return "token123", &domain.Account{Username: username, AccountNumber: "123456", Balance: decimal.NewFromInt(10)}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"username":"alice1","password":"s3cret"}`, "")

	if err := NewAuthHandler(nil, stub, "ZAR").Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.Account.Balance != "10" || resp.Account.Currency != "ZAR" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.Account, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/login", `{"username":"alice1","password":"nope"}`, "")

	if err := NewAuthHandler(nil, stub, "ZAR").Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/auth/login", `{"username":`, "")

	if err := NewAuthHandler(nil, &stubAuthService{}, "ZAR").Login(c); err == nil {
		t.Fatal("expected bind error")
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var gotID string
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, tokenID string, exp time.Time) error {
			gotID = tokenID
			if exp.IsZero() {
				t.Fatal("expiry not forwarded")
			}
			return nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/logout", "", "alice1")

	if err := NewAuthHandler(nil, stub, "ZAR").Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotID != "tok-1" {
		t.Fatalf("unexpected logout: code=%d id=%q", rec.Code, gotID)
	}
}

func TestAuthHandler_Logout_WithoutSession(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/auth/logout", "", "")

	if err := NewAuthHandler(nil, &stubAuthService{}, "ZAR").Logout(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
