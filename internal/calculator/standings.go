package calculator

import (
	"cmp"
	"slices"

	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// Standings summarizes every person with a price or a balance.
// The list is ordered the way SelectPayer ranks balances: lowest first, then name.
func Standings(prices, balances map[string]money.Money, history []models.Round) []models.Standing {
	byName := make(map[string]*models.Standing, len(prices))
	get := func(name string) *models.Standing {
		s, ok := byName[name]
		if !ok {
			s = &models.Standing{Name: name}
			byName[name] = s
		}
		return s
	}

	for name, price := range prices {
		get(name).Price = price
	}
	for name, bal := range balances {
		get(name).Balance = bal
	}
	for _, r := range history {
		s, ok := byName[r.Payer]
		if !ok {
			continue
		}
		s.RoundsPaid++
		s.LastPaid = r.Timestamp
	}

	out := make([]models.Standing, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b models.Standing) int {
		if c := a.Balance.Cmp(b.Balance); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
