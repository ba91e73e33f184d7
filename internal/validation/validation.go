// Package validation sanitizes names and prices before they reach the ledger.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/money"
)

// MaxNameLength is the longest accepted name, in characters.
const MaxNameLength = 40

const (
	msgInvalidName  = "invalid name"
	msgInvalidPrice = "invalid price"
)

// Name trims s and checks it is 1..MaxNameLength letters, spaces, hyphens or
// apostrophes. The trimmed name is returned.
func Name(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperrors.Validation(msgInvalidName)
	}
	for _, r := range name {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			continue
		}
		return "", apperrors.Validation(msgInvalidName)
	}
	return name, nil
}

// Price parses v as a positive amount. Strings are normalized first: surrounding
// whitespace and a leading currency symbol are dropped, and a lone comma is
// read as the decimal separator.
func Price(v any) (money.Money, error) {
	if s, ok := v.(string); ok {
		v = normalizePrice(s)
	}
	m, err := money.FromAny(v)
	if err != nil {
		return money.Zero, apperrors.Validationf(err, msgInvalidPrice)
	}
	if !m.IsPositive() {
		return money.Zero, apperrors.Validation(msgInvalidPrice)
	}
	return m, nil
}

func normalizePrice(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
