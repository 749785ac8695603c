package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type stubRevoker struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevoker) Revoke(_ context.Context, id string, _ time.Duration) error {
	s.revoked[id] = true
	return nil
}

func (s *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[id], nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"username": "alice1",
		"jti":      "tok-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
}

// runAuth executes the middleware and returns the recorder and whether next ran.
func runAuth(t *testing.T, header string, revoker *stubRevoker, next echo.HandlerFunc) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	if next == nil {
		next = func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	}
	var mw echo.MiddlewareFunc
	if revoker == nil {
		mw = Auth("secret", nil, zerolog.Nop())
	} else {
		mw = Auth("secret", revoker, zerolog.Nop())
	}
	handler := mw(func(c echo.Context) error {
		called = true
		return next(c)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	signed := signToken(t, validClaims())

	rec, called := runAuth(t, "Bearer "+signed, &stubRevoker{revoked: map[string]bool{}}, func(c echo.Context) error {
		if c.Get(KeyUsername) != "alice1" {
			t.Fatalf("username not set")
		}
		if c.Get(KeyTokenID) != "tok-1" {
			t.Fatalf("token_id not set")
		}
		if exp, ok := c.Get(KeyTokenExp).(time.Time); !ok || exp.Before(time.Now()) {
			t.Fatalf("token_exp not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExp := validClaims()
	delete(noExp, "exp")

	noJTI := validClaims()
	delete(noJTI, "jti")

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"garbage token":  "Bearer not-a-token",
		"expired token":  "Bearer " + signToken(t, expired),
		"no expiry":      "Bearer " + signToken(t, noExp),
		"missing jti":    "Bearer " + signToken(t, noJTI),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, called := runAuth(t, header, nil, nil)
			if called {
				t.Fatal("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("other"))

	rec, called := runAuth(t, "Bearer "+signed, nil, nil)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without next, got %d (called=%v)", rec.Code, called)
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	revoker := &stubRevoker{revoked: map[string]bool{"tok-1": true}}

	rec, called := runAuth(t, "Bearer "+signToken(t, validClaims()), revoker, nil)
	if called {
		t.Fatal("revoked token must not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RevocationStoreDown(t *testing.T) {
	revoker := &stubRevoker{revoked: map[string]bool{}, err: errors.New("redis down")}

	rec, called := runAuth(t, "Bearer "+signToken(t, validClaims()), revoker, nil)
	if called {
		t.Fatal("must fail closed when revocations cannot be checked")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
