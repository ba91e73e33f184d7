package storage

import (
	"context"
	"log/slog"
	"maps"

	"github.com/mmynk/coffeeledger/internal/money"
)

// DefaultRoster is the roster a fresh ledger starts with.
var DefaultRoster = map[string]money.Money{
	"Bob":   money.MustParse("4.50"),
	"Jim":   money.MustParse("3.00"),
	"Sara":  money.MustParse("5.00"),
	"Tom":   money.MustParse("4.00"),
	"Anna":  money.MustParse("4.75"),
	"Mike":  money.MustParse("3.50"),
	"Linda": money.MustParse("4.25"),
}

// Seed writes roster as the price list, with zero balances, when the store has
// no prices yet. Existing balances are kept. It reports whether it seeded.
func Seed(ctx context.Context, store Store, roster map[string]money.Money) (bool, error) {
	if len(roster) == 0 {
		return false, nil
	}

	prices, err := store.LoadPrices(ctx)
	if err != nil {
		return false, err
	}
	if len(prices) > 0 {
		return false, nil
	}

	balances, err := store.LoadBalances(ctx)
	if err != nil {
		return false, err
	}
	for name := range roster {
		if _, ok := balances[name]; !ok {
			balances[name] = money.Zero
		}
	}

	if err := store.SavePrices(ctx, maps.Clone(roster)); err != nil {
		return false, err
	}
	if err := store.SaveBalances(ctx, balances); err != nil {
		return false, err
	}

	slog.Info("Seeded default roster", "people", len(roster))
	return true, nil
}
