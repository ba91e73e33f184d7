package calculator

import (
	"maps"

	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// ApplySettlement returns the balances after payer covers total for included.
// The input map is not modified.
//
//   - CreditOnly: payer += total.
//   - DebitCredit: each included person -= own price, then payer += total.
//     Across the included people the changes sum to zero.
func ApplySettlement(model models.SettlementModel, balances, prices map[string]money.Money, included []string, payer string, total money.Money) map[string]money.Money {
	next := maps.Clone(balances)
	if next == nil {
		next = make(map[string]money.Money)
	}

	if model == models.DebitCredit {
		for _, p := range included {
			next[p] = next[p].Sub(prices[p])
		}
	}
	next[payer] = next[payer].Add(total)

	return next
}
