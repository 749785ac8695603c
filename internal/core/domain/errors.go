package domain

import "fmt"

// ErrorCode is the machine-readable reason attached to every domain error.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "validation_error"
	CodeDuplicateUsername   ErrorCode = "duplicate_username"
	CodeDuplicateIDNumber   ErrorCode = "duplicate_id_number"
	CodeInvalidAmount       ErrorCode = "invalid_amount"
	CodeInsufficientBalance ErrorCode = "insufficient_balance"
	CodeRecipientNotFound   ErrorCode = "recipient_not_found"
	CodeNotAuthenticated    ErrorCode = "not_authenticated"
	CodeInvalidCredentials  ErrorCode = "invalid_credentials"
)

// Error is a recoverable business rule violation. Two errors match under
// errors.Is when their codes are equal, so a ValidationError carrying a
// field-specific message still matches ErrValidation.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation          = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrDuplicateUsername   = &Error{Code: CodeDuplicateUsername, Message: "username already exists, please choose another"}
	ErrDuplicateIDNumber   = &Error{Code: CodeDuplicateIDNumber, Message: "ID number already exists, please use a different one"}
	ErrInvalidAmount       = &Error{Code: CodeInvalidAmount, Message: "amount must be a positive number"}
	ErrInsufficientBalance = &Error{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrRecipientNotFound   = &Error{Code: CodeRecipientNotFound, Message: "recipient account not found"}
	ErrNotAuthenticated    = &Error{Code: CodeNotAuthenticated, Message: "not authenticated"}
	ErrInvalidCredentials  = &Error{Code: CodeInvalidCredentials, Message: "invalid username or password"}
)

// ValidationError returns a validation failure with a field-specific message.
func ValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidAmount returns an ErrInvalidAmount variant with a specific message.
func InvalidAmount(msg string) *Error {
	return &Error{Code: CodeInvalidAmount, Message: msg}
}
