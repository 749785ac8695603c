package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zabank/ledger-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:          http.StatusUnprocessableEntity,
	domain.CodeDuplicateUsername:   http.StatusConflict,
	domain.CodeDuplicateIDNumber:   http.StatusConflict,
	domain.CodeInvalidAmount:       http.StatusUnprocessableEntity,
	domain.CodeInsufficientBalance: http.StatusConflict,
	domain.CodeRecipientNotFound:   http.StatusNotFound,
	domain.CodeNotAuthenticated:    http.StatusUnauthorized,
	domain.CodeInvalidCredentials:  http.StatusUnauthorized,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, auth middleware).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			return status, errorResponse{Error: de.Message, Code: string(de.Code)}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"}
}

// codeForStatus derives a reason code for errors raised outside the domain.
func codeForStatus(status int) string {
	if status == http.StatusUnauthorized {
		return string(domain.CodeNotAuthenticated)
	}
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
