package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zabank/ledger-api/internal/core/ports"
	"github.com/zabank/ledger-api/internal/metrics"
)

type AuthHandler struct {
	registration ports.RegistrationService
	authService  ports.AuthService
	currency     string
}

func NewAuthHandler(registration ports.RegistrationService, authService ports.AuthService, currency string) *AuthHandler {
	return &AuthHandler{registration: registration, authService: authService, currency: currency}
}

// Register creates a new account with a zero balance.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account holder details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(resultLabel(err)).Inc()
		return err
	}

	res, err := h.registration.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Phone:    req.Phone,
		IDNumber: req.IDNumber,
		Username: req.Username,
		Password: req.Password,
	})
	metrics.RegistrationsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Username:      res.Username,
		AccountNumber: res.AccountNumber,
		Message:       "Registration successful",
	})
}

// Login authenticates an account holder and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, acct, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		Account: accountResponse{
			Username:      acct.Username,
			Name:          acct.Name,
			Surname:       acct.Surname,
			Phone:         acct.Phone,
			AccountNumber: acct.AccountNumber,
			Balance:       acct.Balance.String(),
			Currency:      h.currency,
		},
	})
}

// Logout revokes the bearer token used for this request.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	tokenID, exp, err := ctxToken(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), tokenID, exp); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}
