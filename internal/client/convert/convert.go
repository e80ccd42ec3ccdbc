package convert

import (
	"errors"
	"fmt"

	"currency-rates-service/internal/domain/model"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Convert computes amount in `to` units from amount in `from` units using a
// rate table that quotes units of base per one unit of each currency. The
// base cancels out, so the formula yields the direct cross-rate regardless of
// which currency is the base:
//
//	result = amount * rates[from] / rates[to]
func Convert(rates map[model.Currency]float64, amount float64, from, to model.Currency) (float64, error) {
	fromRate, ok := rates[from]
	if !ok || fromRate <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := rates[to]
	if !ok || toRate <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return amount * fromRate / toRate, nil
}
