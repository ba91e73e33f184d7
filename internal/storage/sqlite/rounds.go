package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// AppendHistory persists a round. An empty round.ID gets a fresh UUID.
func (s *SQLiteStore) AppendHistory(ctx context.Context, round models.Round) error {
	return s.inTx(ctx, "append history", func(tx *sql.Tx) error {
		return insertRound(ctx, tx, round)
	})
}

// CommitRound replaces balances and appends round in a single transaction.
func (s *SQLiteStore) CommitRound(ctx context.Context, balances map[string]money.Money, round models.Round) error {
	return s.inTx(ctx, "commit round", func(tx *sql.Tx) error {
		if err := replaceMap(ctx, tx, "balances", "balance", balances); err != nil {
			return err
		}
		return insertRound(ctx, tx, round)
	})
}

// ReadHistory returns every round in insertion order.
func (s *SQLiteStore) ReadHistory(ctx context.Context) ([]models.Round, error) {
	const op = "read history"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, payer, total_cost, people FROM rounds ORDER BY seq",
	)
	if err != nil {
		return nil, apperrors.Storage(op, fmt.Errorf("failed to query rounds: %w", err))
	}
	defer rows.Close()

	rounds := []models.Round{}
	for rows.Next() {
		var (
			r            models.Round
			cost, people string
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Payer, &cost, &people); err != nil {
			return nil, apperrors.Storage(op, fmt.Errorf("failed to scan round: %w", err))
		}
		r.TotalCost, err = money.Parse(cost)
		if err != nil {
			return nil, apperrors.Storage(op, fmt.Errorf("bad total_cost in round %s: %w", r.ID, err))
		}
		r.People = models.SplitPeople(people)
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(op, fmt.Errorf("failed to iterate rounds: %w", err))
	}

	return rounds, nil
}

// ResetHistory deletes every round.
func (s *SQLiteStore) ResetHistory(ctx context.Context) error {
	return s.inTx(ctx, "reset history", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM rounds"); err != nil {
			return fmt.Errorf("failed to delete rounds: %w", err)
		}
		return nil
	})
}

func insertRound(ctx context.Context, tx *sql.Tx, round models.Round) error {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO rounds (id, timestamp, payer, total_cost, people) VALUES (?, ?, ?, ?, ?)",
		round.ID, round.Timestamp, round.Payer, round.TotalCost.String(), models.JoinPeople(round.People),
	)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}
