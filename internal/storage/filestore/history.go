package filestore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// HistoryHeader is the first row of history.csv.
var HistoryHeader = []string{"timestamp", "payer", "total_cost", "people"}

// AppendHistory adds round as the last row of history.csv, writing the header
// first when the file is new. The whole file is rewritten atomically so a
// concurrent reader never sees half a row.
func (s *Store) AppendHistory(ctx context.Context, round models.Round) error {
	const op = "append history"
	if err := ctx.Err(); err != nil {
		return apperrors.Storage(op, err)
	}

	existing, err := s.readHistoryBytes()
	if err != nil {
		return apperrors.Storage(op, err)
	}

	var buf bytes.Buffer
	if len(bytes.TrimSpace(existing)) == 0 {
		if err := writeRows(&buf, HistoryHeader); err != nil {
			return apperrors.Storage(op, err)
		}
	} else {
		buf.Write(existing)
		if !bytes.HasSuffix(existing, []byte("\n")) {
			buf.WriteByte('\n')
		}
	}

	row := []string{round.Timestamp, round.Payer, round.TotalCost.String(), models.JoinPeople(round.People)}
	if err := writeRows(&buf, row); err != nil {
		return apperrors.Storage(op, err)
	}

	if err := renameio.WriteFile(s.path(HistoryFile), buf.Bytes(), filePerm); err != nil {
		return apperrors.Storage(op, err)
	}
	return nil
}

// ReadHistory parses history.csv. A missing or header-only file is empty history.
func (s *Store) ReadHistory(ctx context.Context) ([]models.Round, error) {
	const op = "read history"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(op, err)
	}

	data, err := s.readHistoryBytes()
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	rounds, err := parseHistory(data)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	return rounds, nil
}

// ResetHistory truncates history.csv to its header.
func (s *Store) ResetHistory(ctx context.Context) error {
	const op = "reset history"
	if err := ctx.Err(); err != nil {
		return apperrors.Storage(op, err)
	}

	var buf bytes.Buffer
	if err := writeRows(&buf, HistoryHeader); err != nil {
		return apperrors.Storage(op, err)
	}
	if err := renameio.WriteFile(s.path(HistoryFile), buf.Bytes(), filePerm); err != nil {
		return apperrors.Storage(op, err)
	}
	return nil
}

// EnsureHistory creates history.csv with its header if it does not exist.
func (s *Store) EnsureHistory(ctx context.Context) error {
	data, err := s.readHistoryBytes()
	if err != nil {
		return apperrors.Storage("ensure history", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		return nil
	}
	return s.ResetHistory(ctx)
}

func (s *Store) readHistoryBytes() ([]byte, error) {
	data, err := os.ReadFile(s.path(HistoryFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func writeRows(w io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encode history row: %w", err)
	}
	return nil
}

func parseHistory(data []byte) ([]models.Round, error) {
	rounds := []models.Round{}
	if len(bytes.TrimSpace(data)) == 0 {
		return rounds, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		if len(rec) < len(header) {
			return nil, fmt.Errorf("history line %d: expected %d columns, got %d", line, len(header), len(rec))
		}

		cost, err := money.Parse(rec[cols["total_cost"]])
		if err != nil {
			return nil, fmt.Errorf("history line %d: total_cost: %w", line, err)
		}
		rounds = append(rounds, models.Round{
			Timestamp: rec[cols["timestamp"]],
			Payer:     rec[cols["payer"]],
			TotalCost: cost,
			People:    models.SplitPeople(rec[cols["people"]]),
		})
	}
	return rounds, nil
}

// columnIndex maps header names to positions so a reordered header still reads.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, want := range HistoryHeader {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("history header %v is missing column %q", header, want)
		}
	}
	return cols, nil
}
