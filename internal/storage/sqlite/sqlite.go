// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
//
// Unlike the file store, every write here is a transaction, so CommitRound
// updates balances and history together or not at all.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; SQLite serializes writes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadPrices(ctx context.Context) (map[string]money.Money, error) {
	return s.loadMap(ctx, "SELECT name, price FROM prices", "load prices")
}

func (s *SQLiteStore) LoadBalances(ctx context.Context) (map[string]money.Money, error) {
	return s.loadMap(ctx, "SELECT name, balance FROM balances", "load balances")
}

// SavePrices replaces the prices table inside one transaction.
func (s *SQLiteStore) SavePrices(ctx context.Context, prices map[string]money.Money) error {
	return s.inTx(ctx, "save prices", func(tx *sql.Tx) error {
		return replaceMap(ctx, tx, "prices", "price", prices)
	})
}

// SaveBalances replaces the balances table inside one transaction.
func (s *SQLiteStore) SaveBalances(ctx context.Context, balances map[string]money.Money) error {
	return s.inTx(ctx, "save balances", func(tx *sql.Tx) error {
		return replaceMap(ctx, tx, "balances", "balance", balances)
	})
}

func (s *SQLiteStore) loadMap(ctx context.Context, query, op string) (map[string]money.Money, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Storage(op, fmt.Errorf("failed to query: %w", err))
	}
	defer rows.Close()

	out := make(map[string]money.Money)
	for rows.Next() {
		var name, amount string
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, apperrors.Storage(op, fmt.Errorf("failed to scan row: %w", err))
		}
		m, err := money.Parse(amount)
		if err != nil {
			return nil, apperrors.Storage(op, fmt.Errorf("bad amount for %s: %w", name, err))
		}
		out[name] = m
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(op, fmt.Errorf("failed to iterate rows: %w", err))
	}
	return out, nil
}

// inTx runs fn in a transaction and wraps any failure as a storage error.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage(op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return apperrors.Storage(op, err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Storage(op, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// replaceMap swaps the contents of a name/amount table for m.
// table and column are package constants, never user input.
func replaceMap(ctx context.Context, tx *sql.Tx, table, column string, m map[string]money.Money) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (name, %s) VALUES (?, ?)", table, column))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for name, amount := range m {
		if _, err := stmt.ExecContext(ctx, name, amount.String()); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}
