package handler

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zabank/ledger-api/internal/api/middleware"
	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/metrics"
)

// ctxUsername returns the authenticated username injected by the Auth
// middleware. Its absence means the route was reached without a session.
func ctxUsername(c echo.Context) (string, error) {
	username, _ := c.Get(middleware.KeyUsername).(string)
	if username == "" {
		return "", domain.ErrNotAuthenticated
	}
	return username, nil
}

// ctxToken returns the id and expiry of the bearer token for this request.
func ctxToken(c echo.Context) (string, time.Time, error) {
	id, _ := c.Get(middleware.KeyTokenID).(string)
	exp, _ := c.Get(middleware.KeyTokenExp).(time.Time)
	if id == "" {
		return "", time.Time{}, domain.ErrNotAuthenticated
	}
	return id, exp, nil
}

// resultLabel turns an operation outcome into a metrics label: "success",
// the domain error code, or "error" for anything unexpected.
func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return "error"
}
