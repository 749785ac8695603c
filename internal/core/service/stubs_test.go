package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zabank/ledger-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub stores
// ---------------------------------------------------------------------------

// stubUserStore keeps a private copy of the registry so that mutations only
// become visible after SaveAll, like the real stores.
type stubUserStore struct {
	saved     *domain.Registry
	loadErr   error
	saveErr   error
	saveCalls int
}

func newStubUserStore(accounts ...*domain.Account) *stubUserStore {
	r := domain.NewRegistry()
	for _, a := range accounts {
		r.Put(a)
	}
	return &stubUserStore{saved: r}
}

func cloneRegistry(r *domain.Registry) *domain.Registry {
	out := domain.NewRegistry()
	for _, a := range r.Accounts() {
		clone := *a
		out.Put(&clone)
	}
	return out
}

func (s *stubUserStore) LoadAll(_ context.Context) (*domain.Registry, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneRegistry(s.saved), nil
}

func (s *stubUserStore) SaveAll(_ context.Context, r *domain.Registry) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = cloneRegistry(r)
	return nil
}

func (s *stubUserStore) account(username string) *domain.Account {
	a, _ := s.saved.Get(username)
	return a
}

type stubJournal struct {
	entries   []domain.Transaction
	appendErr error
	loadErr   error
}

func (j *stubJournal) Append(_ context.Context, tx domain.Transaction) error {
	if j.appendErr != nil {
		return j.appendErr
	}
	j.entries = append(j.entries, tx)
	return nil
}

func (j *stubJournal) LoadAll(_ context.Context) ([]domain.Transaction, error) {
	if j.loadErr != nil {
		return nil, j.loadErr
	}
	return append([]domain.Transaction(nil), j.entries...), nil
}

type stubPublisher struct {
	err       error
	published []domain.Transaction
}

func (p *stubPublisher) PublishTransaction(_ context.Context, tx domain.Transaction) error {
	p.published = append(p.published, tx)
	return p.err
}

type stubRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, nil
}

var discardLogger = zerolog.Nop()
