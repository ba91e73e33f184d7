package models

import "github.com/mmynk/coffeeledger/internal/money"

// Standing summarizes one person's position in the rotation.
type Standing struct {
	Name string `json:"name"`

	// Price is zero for people who only appear in balances.
	Price money.Money `json:"price"`

	Balance money.Money `json:"balance"`

	// RoundsPaid counts history rounds with this person as payer.
	RoundsPaid int `json:"rounds_paid"`

	// LastPaid is the timestamp of the most recent round they paid, or empty.
	LastPaid string `json:"last_paid,omitempty"`
}
