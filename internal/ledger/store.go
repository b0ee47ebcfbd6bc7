// Package ledger holds the signed-in user's transactions in memory and keeps
// them in step with the API.
package ledger

import (
	"context"
	"errors"
	"sync"

	"gideon/internal/models"
	"gideon/internal/notify"
)

// ErrNotAuthenticated is returned by mutations attempted without an identity.
var ErrNotAuthenticated = errors.New("Usuário não autenticado")

// Gateway is the remote table the store reads from and writes to. Every
// call is scoped to the identity the gateway is authenticated as.
type Gateway interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, in models.TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Store is the in-memory transaction list of the current identity.
// It is safe for concurrent use; gateway calls run without the lock held and
// each state change swaps in a new slice.
type Store struct {
	gw       Gateway
	notifier notify.Notifier

	mu      sync.RWMutex
	items   []models.Transaction
	loading bool
	owner   string
	// generation increases with every Load and identity change. A load
	// response is applied only if no newer load or identity change happened
	// while it was in flight.
	generation uint64
}

// New creates an empty store. It reports loading until the first Load or
// identity change settles.
func New(gw Gateway, notifier notify.Notifier) *Store {
	return &Store{gw: gw, notifier: notifier, loading: true}
}

// Transactions returns a copy of the current list.
func (s *Store) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Owner returns the identity the list belongs to, or "" when signed out.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// SetIdentity switches the store to user (nil when signed out) and reloads.
// A change of identity drops the previous list and invalidates any load in
// flight.
func (s *Store) SetIdentity(ctx context.Context, user *models.User) error {
	owner := ""
	if user != nil {
		owner = user.ID
	}

	s.mu.Lock()
	if owner != s.owner {
		s.owner = owner
		s.items = nil
		s.generation++
	}
	s.mu.Unlock()

	return s.Load(ctx)
}

// Load fetches every transaction of the current identity, newest date first,
// and replaces the list. Without an identity it clears the list and makes
// no request. On failure the list is left as it was.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.owner == "" {
		s.items = nil
		s.loading = false
		s.mu.Unlock()
		return nil
	}
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	txs, err := s.gw.ListTransactions(ctx)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err == nil {
		if txs == nil {
			txs = []models.Transaction{}
		}
		s.items = txs
	}
	s.mu.Unlock()

	if err != nil {
		s.notifier.Notify(notify.Failure("Erro ao carregar transações", err.Error()))
		return err
	}
	return nil
}

// Refetch reloads the list.
func (s *Store) Refetch(ctx context.Context) error {
	return s.Load(ctx)
}

// Add validates draft, creates the transaction and puts the stored record at
// the head of the list. The list is not re-sorted; the next Load restores
// date order.
func (s *Store) Add(ctx context.Context, draft Draft) (*models.Transaction, error) {
	input, err := draft.Input()
	if err != nil {
		return nil, err
	}

	owner := s.Owner()
	if owner == "" {
		return nil, ErrNotAuthenticated
	}

	tx, err := s.gw.CreateTransaction(ctx, input)
	if err != nil {
		s.notifier.Notify(notify.Failure("Erro ao adicionar transação", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	if s.owner == owner {
		items := make([]models.Transaction, 0, len(s.items)+1)
		items = append(items, *tx)
		s.items = append(items, s.items...)
	}
	s.mu.Unlock()

	s.notifier.Notify(notify.Success("Transação adicionada", "Sua transação foi registrada com sucesso."))
	return tx, nil
}

// Update applies patch to transaction id and replaces the matching record
// with the stored one.
func (s *Store) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	owner := s.Owner()
	if owner == "" {
		return nil, ErrNotAuthenticated
	}

	tx, err := s.gw.UpdateTransaction(ctx, id, patch)
	if err != nil {
		s.notifier.Notify(notify.Failure("Erro ao atualizar transação", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	if s.owner == owner {
		items := make([]models.Transaction, len(s.items))
		for i, existing := range s.items {
			if existing.ID == id {
				items[i] = *tx
			} else {
				items[i] = existing
			}
		}
		s.items = items
	}
	s.mu.Unlock()

	s.notifier.Notify(notify.Success("Transação atualizada", "Sua transação foi atualizada com sucesso."))
	return tx, nil
}

// Remove deletes transaction id. The request is sent even if id is not in
// the list; on success the matching record, if any, is dropped.
func (s *Store) Remove(ctx context.Context, id string) error {
	owner := s.Owner()
	if owner == "" {
		return ErrNotAuthenticated
	}

	if err := s.gw.DeleteTransaction(ctx, id); err != nil {
		s.notifier.Notify(notify.Failure("Erro ao excluir transação", err.Error()))
		return err
	}

	s.mu.Lock()
	if s.owner == owner {
		items := make([]models.Transaction, 0, len(s.items))
		for _, existing := range s.items {
			if existing.ID != id {
				items = append(items, existing)
			}
		}
		s.items = items
	}
	s.mu.Unlock()

	s.notifier.Notify(notify.Success("Transação excluída", "Sua transação foi removida com sucesso."))
	return nil
}
