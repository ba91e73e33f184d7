package calculator

import (
	"slices"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

// ErrNoValidCandidates is returned by SelectPayer when no candidate has a balance.
var ErrNoValidCandidates = apperrors.EmptySelection("no valid candidates")

// SelectPayer picks who pays next among candidates.
//
// The candidate with the lowest cumulative balance pays. When several share
// that balance the tie strategy decides. The result does not depend on the
// order of candidates.
func SelectPayer(balances map[string]money.Money, candidates []string, strategy models.TieStrategy, history []models.Round) (string, error) {
	tied := lowestBalance(balances, candidates)
	switch len(tied) {
	case 0:
		return "", ErrNoValidCandidates
	case 1:
		return tied[0], nil
	}

	switch strategy {
	case models.TieAlpha:
		return tied[0], nil
	case models.TieRandom:
		return pickRandom(tied)
	case models.TieRoundRobin:
		return nextInRotation(tied, history), nil
	default:
		return leastRecentlyPaid(tied, history), nil
	}
}

// lowestBalance returns the sorted, de-duplicated candidates with a balance
// equal to the minimum among candidates present in balances.
func lowestBalance(balances map[string]money.Money, candidates []string) []string {
	var (
		tied   []string
		lowest money.Money
	)
	for _, c := range candidates {
		bal, ok := balances[c]
		if !ok {
			continue
		}
		switch {
		case tied == nil || bal.LessThan(lowest):
			lowest = bal
			tied = []string{c}
		case bal.Equal(lowest):
			tied = append(tied, c)
		}
	}
	slices.Sort(tied)
	return slices.Compact(tied)
}
