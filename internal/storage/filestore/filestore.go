// Package filestore provides a directory-backed implementation of storage.Store.
//
// Layout inside the directory:
//
//	prices.json    name -> price, pretty-printed
//	balances.json  name -> balance, pretty-printed
//	history.csv    timestamp,payer,total_cost,people (people joined with "|")
//
// Every write replaces the target file through a temporary file in the same
// directory, fsync and rename, so readers see either the old or the new file.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const (
	PricesFile   = "prices.json"
	BalancesFile = "balances.json"
	HistoryFile  = "history.csv"

	filePerm = 0o644
)

// Store keeps ledger state as files under one directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Close is a no-op; files are not held open between calls.
func (s *Store) Close() error {
	return nil
}

func (s *Store) LoadPrices(ctx context.Context) (map[string]money.Money, error) {
	return s.loadMap(ctx, PricesFile, "load prices")
}

func (s *Store) LoadBalances(ctx context.Context) (map[string]money.Money, error) {
	return s.loadMap(ctx, BalancesFile, "load balances")
}

func (s *Store) SavePrices(ctx context.Context, prices map[string]money.Money) error {
	return s.saveMap(ctx, PricesFile, "save prices", prices)
}

func (s *Store) SaveBalances(ctx context.Context, balances map[string]money.Money) error {
	return s.saveMap(ctx, BalancesFile, "save balances", balances)
}

// CommitRound writes balances, then history. Each file is replaced atomically
// but the pair is not: a failure between the two leaves the new balances
// without their history row.
func (s *Store) CommitRound(ctx context.Context, balances map[string]money.Money, round models.Round) error {
	if err := s.SaveBalances(ctx, balances); err != nil {
		return err
	}
	return s.AppendHistory(ctx, round)
}

func (s *Store) loadMap(ctx context.Context, name, op string) (map[string]money.Money, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(op, err)
	}

	out := make(map[string]money.Money)
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.Storage(op, fmt.Errorf("decode %s: %w", name, err))
	}
	// A literal null decodes to a nil map; treat it like an empty file.
	if out == nil {
		out = make(map[string]money.Money)
	}
	return out, nil
}

func (s *Store) saveMap(ctx context.Context, name, op string, m map[string]money.Money) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Storage(op, err)
	}
	if m == nil {
		m = map[string]money.Money{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.Storage(op, err)
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(s.path(name), data, filePerm); err != nil {
		return apperrors.Storage(op, err)
	}
	return nil
}
