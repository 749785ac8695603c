package ports

import "context"

// RegisterInput carries the raw registration form.
type RegisterInput struct {
	Name     string
	Surname  string
	Phone    string
	IDNumber string
	Username string
	Password string
}

// RegistrationResult is returned after an account has been created.
type RegistrationResult struct {
	Username      string
	AccountNumber string
}

type RegistrationService interface {
	Register(ctx context.Context, input RegisterInput) (*RegistrationResult, error)
}
