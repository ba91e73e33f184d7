// Package calculator holds the fairness engine: round cost, payer selection
// and the balance updates a settled round produces. Everything here is pure.
package calculator

import (
	"github.com/mmynk/coffeeledger/internal/money"
)

// ComputeTotalCost sums the prices of people who have one.
//
// Unknown names are dropped without error. The returned included list keeps
// the input order and lists a repeated name once, at its first position. A
// repeated name is also priced once, so the total is the sum over distinct
// included people rather than over every entry of people.
// An empty included list is a valid result; callers decide if it is an error.
func ComputeTotalCost(prices map[string]money.Money, people []string) (money.Money, []string) {
	included := make([]string, 0, len(people))
	seen := make(map[string]bool, len(people))
	amounts := make([]money.Money, 0, len(people))

	for _, p := range people {
		price, ok := prices[p]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		included = append(included, p)
		amounts = append(amounts, price)
	}

	return money.Sum(amounts...), included
}
