package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zabank/ledger-api/internal/core/ports"
)

// Context keys injected for downstream handlers.
const (
	KeyUsername = "username"
	KeyTokenID  = "token_id"
	KeyTokenExp = "token_exp"
)

// Auth validates the bearer JWT, rejects revoked tokens and injects the
// username, token id and expiry into the context. revoker may be nil.
func Auth(jwtSecret string, revoker ports.TokenRevoker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			username, _ := claims["username"].(string)
			tokenID, _ := claims["jti"].(string)
			if username == "" || tokenID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
			}
			exp, err := claims.GetExpirationTime()
			if err != nil || exp == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(c.Request().Context(), tokenID)
				if err != nil {
					log.Error().Err(err).Msg("token revocation check failed")
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
				}
			}

			c.Set(KeyUsername, username)
			c.Set(KeyTokenID, tokenID)
			c.Set(KeyTokenExp, exp.Time)

			return next(c)
		}
	}
}
