package ledger

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/calculator"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// State is a read-only snapshot of the ledger.
type State struct {
	Prices    map[string]money.Money
	Balances  map[string]money.Money
	History   []models.Round
	Standings []models.Standing
}

// Preview is who would pay for a round, without settling it.
type Preview struct {
	Payer     string
	TotalCost money.Money
	Included  []string
	Strategy  models.TieStrategy
}

// RoundResult is a settled round plus the ledger state after it.
type RoundResult struct {
	Timestamp string
	Payer     string
	TotalCost money.Money
	Included  []string
	Strategy  models.TieStrategy
	Prices    map[string]money.Money
	Balances  map[string]money.Money
	History   []models.Round
}

var (
	errNoPrices  = apperrors.EmptySelection("no prices configured")
	errNoMatches = apperrors.EmptySelection("no provided people match prices")
)

// GetState returns prices, balances, history and per-person standings.
func (l *Ledger) GetState(ctx context.Context) (_ *State, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("get_state", err) }()

	prices, balances, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	history, err := l.store.ReadHistory(ctx)
	if err != nil {
		return nil, err
	}

	return &State{
		Prices:    prices,
		Balances:  balances,
		History:   history,
		Standings: calculator.Standings(prices, balances, history),
	}, nil
}

// PreviewNext computes the next payer for candidates without persisting
// anything. No candidates means everyone with a price.
func (l *Ledger) PreviewNext(ctx context.Context, candidates []string, tie string) (_ *Preview, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("preview_next", err) }()

	p, err := l.plan(ctx, candidates, tie)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Payer:     p.payer,
		TotalCost: p.total,
		Included:  p.included,
		Strategy:  p.strategy,
	}, nil
}

// RunRound selects a payer, settles the round and appends it to history.
func (l *Ledger) RunRound(ctx context.Context, candidates []string, tie string) (_ *RoundResult, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("run_round", err) }()

	p, err := l.plan(ctx, candidates, tie)
	if err != nil {
		return nil, err
	}

	balances := calculator.ApplySettlement(l.model, p.balances, p.prices, p.included, p.payer, p.total)
	round := models.Round{
		Timestamp: calculator.FormatTimestamp(l.now()),
		Payer:     p.payer,
		TotalCost: p.total,
		People:    p.included,
	}
	if err := l.store.CommitRound(ctx, balances, round); err != nil {
		return nil, err
	}

	history, err := l.store.ReadHistory(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Round settled",
		"payer", p.payer,
		"total_cost", p.total.String(),
		"included", len(p.included),
		"strategy", p.strategy,
		"settlement_model", l.model,
	)
	if l.recorder != nil {
		l.recorder.RoundSettled(p.strategy, p.payer, p.total)
	}

	return &RoundResult{
		Timestamp: round.Timestamp,
		Payer:     p.payer,
		TotalCost: p.total,
		Included:  p.included,
		Strategy:  p.strategy,
		Prices:    p.prices,
		Balances:  balances,
		History:   history,
	}, nil
}

// roundPlan is everything PreviewNext and RunRound share.
type roundPlan struct {
	prices   map[string]money.Money
	balances map[string]money.Money
	payer    string
	total    money.Money
	included []string
	strategy models.TieStrategy
}

func (l *Ledger) plan(ctx context.Context, candidates []string, tie string) (*roundPlan, error) {
	prices, balances, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, errNoPrices
	}
	if len(candidates) == 0 {
		candidates = slices.Sorted(maps.Keys(prices))
	}

	total, included := calculator.ComputeTotalCost(prices, candidates)
	if len(included) == 0 {
		return nil, errNoMatches
	}

	history, err := l.store.ReadHistory(ctx)
	if err != nil {
		return nil, err
	}

	strategy := l.tieStrategy(tie)
	payer, err := calculator.SelectPayer(balances, included, strategy, history)
	if err != nil {
		return nil, err
	}

	return &roundPlan{
		prices:   prices,
		balances: balances,
		payer:    payer,
		total:    total,
		included: included,
		strategy: strategy,
	}, nil
}
