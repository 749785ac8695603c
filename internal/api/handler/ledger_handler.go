package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/ports"
	"github.com/zabank/ledger-api/internal/metrics"
)

const timestampLayout = "2006-01-02 15:04:05"

// LedgerHandler exposes the balance operations of the authenticated account.
type LedgerHandler struct {
	service  ports.LedgerService
	currency string
}

func NewLedgerHandler(service ports.LedgerService, currency string) *LedgerHandler {
	return &LedgerHandler{service: service, currency: currency}
}

// Account handles GET /v1/account.
//
// @Summary      Current account
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/account [get]
func (h *LedgerHandler) Account(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	view, err := h.service.Account(c.Request().Context(), username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, accountResponse{
		Username:      view.Username,
		Name:          view.Name,
		Surname:       view.Surname,
		Phone:         view.Phone,
		AccountNumber: view.AccountNumber,
		Balance:       view.Balance.String(),
		Currency:      h.currency,
	})
}

// Deposit handles POST /v1/deposit.
//
// @Summary      Deposit funds
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      amountRequest  true  "Amount as a decimal string"
// @Success      200   {object}  ledgerResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/deposit [post]
func (h *LedgerHandler) Deposit(c echo.Context) error {
	username, req, err := h.bindAmount(c)
	if err != nil {
		return err
	}

	res, err := h.service.Deposit(c.Request().Context(), username, req.Amount)
	metrics.LedgerOperationsTotal.WithLabelValues("deposit", resultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.ledgerResponse("Deposit successful", res))
}

// Withdraw handles POST /v1/withdraw.
//
// @Summary      Withdraw funds
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      amountRequest  true  "Amount as a decimal string"
// @Success      200   {object}  ledgerResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/withdraw [post]
func (h *LedgerHandler) Withdraw(c echo.Context) error {
	username, req, err := h.bindAmount(c)
	if err != nil {
		return err
	}

	res, err := h.service.Withdraw(c.Request().Context(), username, req.Amount)
	metrics.LedgerOperationsTotal.WithLabelValues("withdraw", resultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.ledgerResponse("Withdrawal successful", res))
}

// Transfer handles POST /v1/transfer.
//
// @Summary      Transfer funds to another account
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      transferRequest  true  "Amount and recipient account number"
// @Success      200   {object}  ledgerResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/transfer [post]
func (h *LedgerHandler) Transfer(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.Transfer(c.Request().Context(), username, req.Amount, req.RecipientAccount)
	metrics.LedgerOperationsTotal.WithLabelValues("transfer", resultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.ledgerResponse("Transfer successful", res))
}

// History handles GET /v1/transactions.
//
// @Summary      Transaction history
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  historyResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/transactions [get]
func (h *LedgerHandler) History(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	view, err := h.service.Account(ctx, username)
	if err != nil {
		return err
	}
	txs, err := h.service.History(ctx, username)
	if err != nil {
		return err
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return c.JSON(http.StatusOK, historyResponse{AccountNumber: view.AccountNumber, Transactions: out})
}

func (h *LedgerHandler) bindAmount(c echo.Context) (string, amountRequest, error) {
	var req amountRequest
	username, err := ctxUsername(c)
	if err != nil {
		return "", req, err
	}
	if err := c.Bind(&req); err != nil {
		return "", req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return "", req, err
	}
	return username, req, nil
}

func (h *LedgerHandler) ledgerResponse(msg string, res *ports.LedgerResult) ledgerResponse {
	return ledgerResponse{
		Message:       msg,
		AccountNumber: res.AccountNumber,
		Balance:       res.Balance.String(),
		Currency:      h.currency,
		Transaction:   toTransactionResponse(res.Transaction),
	}
}

func toTransactionResponse(tx domain.Transaction) transactionResponse {
	return transactionResponse{
		Timestamp:          tx.Timestamp.Format(timestampLayout),
		Type:               string(tx.Type),
		Amount:             tx.Amount.String(),
		SourceAccount:      tx.SourceAccount,
		DestinationAccount: tx.DestinationAccount,
		Details:            tx.Details,
	}
}
