// Package memory provides an in-memory storage.Store for tests and local runs.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Operation names accepted by FailOn.
const (
	OpLoadPrices    = "load prices"
	OpLoadBalances  = "load balances"
	OpSavePrices    = "save prices"
	OpSaveBalances  = "save balances"
	OpAppendHistory = "append history"
	OpReadHistory   = "read history"
	OpResetHistory  = "reset history"
)

// ErrInjected is the cause of failures set up with FailOn.
var ErrInjected = errors.New("injected failure")

// Store keeps ledger state in maps guarded by a mutex. Loads and saves copy,
// so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	prices   map[string]money.Money
	balances map[string]money.Money
	history  []models.Round

	failOn map[string]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		prices:   make(map[string]money.Money),
		balances: make(map[string]money.Money),
		failOn:   make(map[string]bool),
	}
}

// FailOn makes every later call of op fail with ErrInjected.
func (s *Store) FailOn(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = true
}

func (s *Store) fail(op string) error {
	if s.failOn[op] {
		return apperrors.Storage(op, ErrInjected)
	}
	return nil
}

func (s *Store) LoadPrices(_ context.Context) (map[string]money.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpLoadPrices); err != nil {
		return nil, err
	}
	return maps.Clone(s.prices), nil
}

func (s *Store) LoadBalances(_ context.Context) (map[string]money.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpLoadBalances); err != nil {
		return nil, err
	}
	return maps.Clone(s.balances), nil
}

func (s *Store) SavePrices(_ context.Context, prices map[string]money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpSavePrices); err != nil {
		return err
	}
	s.prices = cloneMap(prices)
	return nil
}

func (s *Store) SaveBalances(_ context.Context, balances map[string]money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpSaveBalances); err != nil {
		return err
	}
	s.balances = cloneMap(balances)
	return nil
}

func (s *Store) AppendHistory(_ context.Context, round models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpAppendHistory); err != nil {
		return err
	}
	s.history = append(s.history, round.Clone())
	return nil
}

func (s *Store) ReadHistory(_ context.Context) ([]models.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(OpReadHistory); err != nil {
		return nil, err
	}
	out := make([]models.Round, len(s.history))
	for i, r := range s.history {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) ResetHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpResetHistory); err != nil {
		return err
	}
	s.history = nil
	return nil
}

// CommitRound applies both writes under one lock, so it is all-or-nothing.
func (s *Store) CommitRound(_ context.Context, balances map[string]money.Money, round models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpSaveBalances); err != nil {
		return err
	}
	if err := s.fail(OpAppendHistory); err != nil {
		return err
	}
	s.balances = cloneMap(balances)
	s.history = append(s.history, round.Clone())
	return nil
}

func (s *Store) Close() error {
	return nil
}

func cloneMap(m map[string]money.Money) map[string]money.Money {
	if m == nil {
		return make(map[string]money.Money)
	}
	return maps.Clone(m)
}
