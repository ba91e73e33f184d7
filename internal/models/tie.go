package models

import "strings"

// TieStrategy breaks a tie between candidates sharing the lowest balance.
type TieStrategy string

const (
	TieAlpha       TieStrategy = "alpha"
	TieRandom      TieStrategy = "random"
	TieRoundRobin  TieStrategy = "round_robin"
	TieLeastRecent TieStrategy = "least_recent"
)

// DefaultTieStrategy is used when the caller gives none or an unknown one.
const DefaultTieStrategy = TieLeastRecent

// TieStrategies lists every strategy.
var TieStrategies = []TieStrategy{TieAlpha, TieRandom, TieRoundRobin, TieLeastRecent}

// ParseTieStrategy is case-insensitive and never fails: unrecognized input
// yields DefaultTieStrategy.
func ParseTieStrategy(s string) TieStrategy {
	t, ok := LookupTieStrategy(s)
	if !ok {
		return DefaultTieStrategy
	}
	return t
}

// LookupTieStrategy is ParseTieStrategy that reports whether s was recognized.
func LookupTieStrategy(s string) (TieStrategy, bool) {
	normalized := TieStrategy(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range TieStrategies {
		if t == normalized {
			return t, true
		}
	}
	return DefaultTieStrategy, false
}
