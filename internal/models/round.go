package models

import (
	"slices"
	"strings"

	"github.com/mmynk/coffeeledger/internal/money"
)

// PeopleDelimiter joins the people of a round in persisted history.
const PeopleDelimiter = "|"

// Round is one settlement event: a total cost for a set of people, paid by one of them.
type Round struct {
	// ID is assigned by stores that key rows (UUID format). Empty for the file store.
	ID string `json:"-"`

	// Timestamp is the UTC settlement time in ISO-8601 form.
	// Kept as text so an unparsable value read from disk survives a round trip.
	Timestamp string `json:"timestamp"`

	// Payer is the name of the person who paid.
	Payer string `json:"payer"`

	// TotalCost is the sum of the included people's prices.
	TotalCost money.Money `json:"total_cost"`

	// People are the included people, in request order.
	People []string `json:"people"`
}

// JoinPeople encodes a people list for storage.
func JoinPeople(people []string) string {
	return strings.Join(people, PeopleDelimiter)
}

// SplitPeople decodes a stored people list. An empty column is an empty list.
func SplitPeople(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, PeopleDelimiter)
}

// Clone returns a copy that shares no memory with r.
func (r Round) Clone() Round {
	r.People = slices.Clone(r.People)
	if r.People == nil {
		r.People = []string{}
	}
	return r
}
