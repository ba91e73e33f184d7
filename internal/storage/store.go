// Package storage provides abstractions for persistent ledger state.
package storage

import (
	"context"

	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (files, SQLite, memory)
// without changing the ledger.
//
// Missing state is empty state: loading from a store that was never written
// returns empty collections, not an error. Every other failure is returned
// as an apperrors storage error.
type Store interface {
	// LoadPrices returns every price entry.
	LoadPrices(ctx context.Context) (map[string]money.Money, error)

	// LoadBalances returns every balance entry.
	LoadBalances(ctx context.Context) (map[string]money.Money, error)

	// SavePrices replaces all price entries. A reader never sees a partial write.
	SavePrices(ctx context.Context, prices map[string]money.Money) error

	// SaveBalances replaces all balance entries. A reader never sees a partial write.
	SaveBalances(ctx context.Context, balances map[string]money.Money) error

	// AppendHistory adds a round to the end of the history.
	AppendHistory(ctx context.Context, round models.Round) error

	// ReadHistory returns all rounds, oldest first.
	ReadHistory(ctx context.Context) ([]models.Round, error)

	// ResetHistory removes every round.
	ResetHistory(ctx context.Context) error

	// CommitRound saves the post-round balances and appends the round.
	// Transactional backends do both or neither.
	CommitRound(ctx context.Context, balances map[string]money.Money, round models.Round) error

	// Close releases any resources held by the store.
	Close() error
}
