package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/validation"
)

// Roster is prices and balances after an edit.
type Roster struct {
	Prices   map[string]money.Money
	Balances map[string]money.Money
}

// Removal reports whether RemovePerson found anything to delete.
type Removal struct {
	Removed  bool
	Prices   map[string]money.Money
	Balances map[string]money.Money
}

// Reset is the state after ResetBalances.
type Reset struct {
	Balances map[string]money.Money
	History  []models.Round
}

// UpsertPrice sets name's price. A new person starts at a zero balance; an
// existing balance is left as is.
func (l *Ledger) UpsertPrice(ctx context.Context, name string, price any) (_ *Roster, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("upsert_price", err) }()

	name, err = validation.Name(name)
	if err != nil {
		return nil, err
	}
	amount, err := validation.Price(price)
	if err != nil {
		return nil, err
	}

	prices, balances, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	prices[name] = amount
	if _, ok := balances[name]; !ok {
		balances[name] = money.Zero
	}

	if err := l.store.SavePrices(ctx, prices); err != nil {
		return nil, err
	}
	if err := l.store.SaveBalances(ctx, balances); err != nil {
		return nil, err
	}

	slog.Info("Price set", "name", name, "price", amount.String())
	return &Roster{Prices: prices, Balances: balances}, nil
}

// RemovePerson deletes name's price and balance. History keeps mentioning them.
func (l *Ledger) RemovePerson(ctx context.Context, name string) (_ *Removal, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("remove_person", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name required")
	}

	prices, balances, repaired, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	_, hadPrice := prices[name]
	_, hadBalance := balances[name]
	if !hadPrice && !hadBalance {
		if repaired {
			if err := l.store.SaveBalances(ctx, balances); err != nil {
				return nil, err
			}
		}
		return &Removal{Removed: false, Prices: prices, Balances: balances}, nil
	}

	delete(prices, name)
	delete(balances, name)
	if err := l.store.SavePrices(ctx, prices); err != nil {
		return nil, err
	}
	if err := l.store.SaveBalances(ctx, balances); err != nil {
		return nil, err
	}

	slog.Info("Person removed", "name", name)
	return &Removal{Removed: true, Prices: prices, Balances: balances}, nil
}

// ResetBalances zeroes every priced person's balance and drops balances of
// people without a price. With clearHistory the history is truncated too.
func (l *Ledger) ResetBalances(ctx context.Context, clearHistory bool) (_ *Reset, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("reset_balances", err) }()

	prices, _, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]money.Money, len(prices))
	for name := range prices {
		balances[name] = money.Zero
	}
	if err := l.store.SaveBalances(ctx, balances); err != nil {
		return nil, err
	}
	if clearHistory {
		if err := l.store.ResetHistory(ctx); err != nil {
			return nil, err
		}
	}

	history, err := l.store.ReadHistory(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Balances reset", "people", len(balances), "history_cleared", clearHistory)
	return &Reset{Balances: balances, History: history}, nil
}

// ClearHistory truncates history. Balances are untouched.
func (l *Ledger) ClearHistory(ctx context.Context) (_ []models.Round, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { l.observe("clear_history", err) }()

	if err := l.store.ResetHistory(ctx); err != nil {
		return nil, err
	}
	history, err := l.store.ReadHistory(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("History cleared")
	return history, nil
}
