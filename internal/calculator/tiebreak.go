package calculator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/mmynk/coffeeledger/internal/models"
)

// randIndex returns a uniform index in [0, n). Tests replace it.
var randIndex = func(n int) (int, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(i.Int64()), nil
}

// pickRandom chooses uniformly among the sorted tie set.
func pickRandom(tied []string) (string, error) {
	i, err := randIndex(len(tied))
	if err != nil {
		return "", fmt.Errorf("random tie-break: %w", err)
	}
	return tied[i], nil
}

// nextInRotation finds the most recent round paid by someone in tied and
// returns the name after them in sorted order, wrapping around. If nobody in
// tied has paid, the first name wins.
func nextInRotation(tied []string, history []models.Round) string {
	for i := len(history) - 1; i >= 0; i-- {
		pos, found := slices.BinarySearch(tied, history[i].Payer)
		if !found {
			continue
		}
		return tied[(pos+1)%len(tied)]
	}
	return tied[0]
}

// leastRecentlyPaid orders tied by last payment: never paid first, then
// oldest payment, then name.
func leastRecentlyPaid(tied []string, history []models.Round) string {
	last := lastPaid(history)

	best := tied[0]
	for _, name := range tied[1:] {
		if paidBefore(last, name, best) {
			best = name
		}
	}
	return best
}

// paidBefore reports whether a ranks ahead of b for least_recent.
func paidBefore(last map[string]time.Time, a, b string) bool {
	ta, aPaid := last[a]
	tb, bPaid := last[b]
	switch {
	case !aPaid && !bPaid:
		return a < b
	case !aPaid:
		return true
	case !bPaid:
		return false
	case !ta.Equal(tb):
		return ta.Before(tb)
	default:
		return a < b
	}
}

// lastPaid maps each payer to their latest parsable payment time.
// Rounds with unparsable timestamps are ignored.
func lastPaid(history []models.Round) map[string]time.Time {
	last := make(map[string]time.Time)
	for _, r := range history {
		ts, ok := ParseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		if prev, seen := last[r.Payer]; !seen || ts.After(prev) {
			last[r.Payer] = ts
		}
	}
	return last
}
