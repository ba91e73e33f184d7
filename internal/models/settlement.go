package models

import "strings"

// SettlementModel decides how a round's total moves balances.
// A ledger uses one model for its whole life, since it fixes what a balance means.
type SettlementModel string

const (
	// CreditOnly adds the round total to the payer. Balances are "total ever paid".
	CreditOnly SettlementModel = "credit_only"

	// DebitCredit charges every included person their own price and credits the
	// payer with the round total. Balances are "paid minus consumed".
	DebitCredit SettlementModel = "debit_credit"
)

// DefaultSettlementModel matches the behaviour of ledgers created before the
// model became configurable.
const DefaultSettlementModel = CreditOnly

// ParseSettlementModel normalizes s. ok is false for anything unrecognized.
func ParseSettlementModel(s string) (SettlementModel, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "", string(CreditOnly), "credit":
		return CreditOnly, true
	case string(DebitCredit), "debit_and_credit":
		return DebitCredit, true
	default:
		return "", false
	}
}
