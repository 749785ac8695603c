package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zabank/ledger-api/internal/api/middleware"
	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
)

type stubRegistration struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.RegistrationResult, error)
}

func (s *stubRegistration) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegistrationResult, error) {
	return s.registerFn(ctx, in)
}

type stubAuthService struct {
	loginFn  func(ctx context.Context, username, password string) (string, *domain.Account, error)
	logoutFn func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.logoutFn(ctx, tokenID, expiresAt)
}

type stubLedger struct {
	depositFn  func(ctx context.Context, username, amount string) (*ports.LedgerResult, error)
	withdrawFn func(ctx context.Context, username, amount string) (*ports.LedgerResult, error)
	transferFn func(ctx context.Context, username, amount, recipient string) (*ports.LedgerResult, error)
	accountFn  func(ctx context.Context, username string) (*ports.AccountView, error)
	historyFn  func(ctx context.Context, username string) ([]domain.Transaction, error)
}

func (s *stubLedger) Deposit(ctx context.Context, username, amount string) (*ports.LedgerResult, error) {
	return s.depositFn(ctx, username, amount)
}

func (s *stubLedger) Withdraw(ctx context.Context, username, amount string) (*ports.LedgerResult, error) {
	return s.withdrawFn(ctx, username, amount)
}

func (s *stubLedger) Transfer(ctx context.Context, username, amount, recipient string) (*ports.LedgerResult, error) {
	return s.transferFn(ctx, username, amount, recipient)
}

func (s *stubLedger) Account(ctx context.Context, username string) (*ports.AccountView, error) {
	return s.accountFn(ctx, username)
}

func (s *stubLedger) History(ctx context.Context, username string) ([]domain.Transaction, error) {
	return s.historyFn(ctx, username)
}

// newContext builds an echo context with the validator installed. A non-empty
// username simulates a request that passed the Auth middleware.
func newContext(method, target, body, username string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if username != "" {
		c.Set(middleware.KeyUsername, username)
		c.Set(middleware.KeyTokenID, "tok-1")
		c.Set(middleware.KeyTokenExp, time.Now().Add(time.Hour))
	}
	return c, rec
}

