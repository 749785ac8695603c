package domain

import "github.com/shopspring/decimal"

// Account is a registered customer together with their single balance.
type Account struct {
	Username      string          `json:"username"`
	Name          string          `json:"name"`
	Surname       string          `json:"surname"`
	Phone         string          `json:"phone"`
	IDNumber      string          `json:"id_number"`
	Balance       decimal.Decimal `json:"balance"`
	AccountNumber string          `json:"account_number"`
	PasswordHash  string          `json:"-"`
}

// Registry is the full set of accounts keyed by username. Iteration order is
// the order in which usernames were first added, so a registry written back
// to storage keeps its original line order.
type Registry struct {
	byUsername map[string]*Account
	order      []string
}

func NewRegistry() *Registry {
	return &Registry{byUsername: make(map[string]*Account)}
}

// Put inserts or replaces the account stored under a.Username. A replaced
// account keeps its original position.
func (r *Registry) Put(a *Account) {
	if _, exists := r.byUsername[a.Username]; !exists {
		r.order = append(r.order, a.Username)
	}
	r.byUsername[a.Username] = a
}

func (r *Registry) Get(username string) (*Account, bool) {
	a, ok := r.byUsername[username]
	return a, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Accounts returns the accounts in registry order.
func (r *Registry) Accounts() []*Account {
	out := make([]*Account, 0, len(r.order))
	for _, u := range r.order {
		out = append(out, r.byUsername[u])
	}
	return out
}

// FindByAccountNumber scans the registry for the first account holding number.
func (r *Registry) FindByAccountNumber(number string) (*Account, bool) {
	for _, u := range r.order {
		if a := r.byUsername[u]; a.AccountNumber == number {
			return a, true
		}
	}
	return nil, false
}

// HasIDNumber reports whether any account is registered under idNumber.
func (r *Registry) HasIDNumber(idNumber string) bool {
	for _, a := range r.byUsername {
		if a.IDNumber == idNumber {
			return true
		}
	}
	return false
}
