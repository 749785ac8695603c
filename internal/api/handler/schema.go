package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Request types ---

type registerRequest struct {
	Name     string `json:"name"      validate:"required,letters"`
	Surname  string `json:"surname"   validate:"required,letters"`
	Phone    string `json:"phone"     validate:"required,za_phone"`
	IDNumber string `json:"id_number" validate:"required,za_id"`
	Username string `json:"username"  validate:"required,username"`
	Password string `json:"password"  validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// amountRequest carries a decimal amount as a JSON string, e.g. "100.50".
type amountRequest struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	Amount           string `json:"amount"`
	RecipientAccount string `json:"recipient_account" validate:"required"`
}

// --- Response types ---

type registerResponse struct {
	Username      string `json:"username"`
	AccountNumber string `json:"account_number"`
	Message       string `json:"message"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	Account   accountResponse `json:"account"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type accountResponse struct {
	Username      string `json:"username"`
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Phone         string `json:"phone"`
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
}

type transactionResponse struct {
	Timestamp          string `json:"timestamp"`
	Type               string `json:"type"`
	Amount             string `json:"amount"`
	SourceAccount      string `json:"source_account,omitempty"`
	DestinationAccount string `json:"destination_account,omitempty"`
	Details            string `json:"details"`
}

type ledgerResponse struct {
	Message       string              `json:"message"`
	AccountNumber string              `json:"account_number"`
	Balance       string              `json:"balance"`
	Currency      string              `json:"currency"`
	Transaction   transactionResponse `json:"transaction"`
}

type historyResponse struct {
	AccountNumber string                `json:"account_number"`
	Transactions  []transactionResponse `json:"transactions"`
}
