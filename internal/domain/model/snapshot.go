package model

import (
	"errors"
	"fmt"
	"math"
)

// DateLayout is the calendar-date form used everywhere: cache scopes, the
// request parameter and the snapshot date.
const DateLayout = "2006-01-02"

// RateSnapshot is one complete, validated set of exchange rates for the base
// currency as of a published calendar date. Rates map a currency code to
// units of base per one unit of that currency; the base maps to exactly 1.
type RateSnapshot struct {
	Base  Currency             `json:"base"`
	Date  string               `json:"date"`
	Rates map[Currency]float64 `json:"rates"`
}

var ErrInvalidSnapshot = errors.New("invalid rate snapshot")

// Validate checks the all-or-nothing snapshot invariant: the base is the
// supported one and maps to exactly 1, the date is set, and every supported
// code has a positive finite rate. A snapshot failing this must never be
// cached or served.
func (s *RateSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.Base != BaseCurrency {
		return fmt.Errorf("%w: unsupported base %q", ErrInvalidSnapshot, s.Base)
	}
	if s.Date == "" {
		return fmt.Errorf("%w: missing date", ErrInvalidSnapshot)
	}
	for _, currency := range SupportedCurrencies {
		rate, ok := s.Rates[currency]
		if !ok {
			return fmt.Errorf("%w: missing rate for %s", ErrInvalidSnapshot, currency)
		}
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return fmt.Errorf("%w: non-positive or non-finite rate for %s", ErrInvalidSnapshot, currency)
		}
	}
	if s.Rates[BaseCurrency] != 1 {
		return fmt.Errorf("%w: base rate must be exactly 1", ErrInvalidSnapshot)
	}
	return nil
}

// DateSource records which feed date field produced the snapshot date.
type DateSource string

const (
	DateSourceCurrent  DateSource = "current"
	DateSourcePrevious DateSource = "previous"
)

// Scope is the cache key dimension distinguishing latest rates from rates
// pinned to a specific past date. Scopes are independent and never merged.
type Scope string

const ScopeLatest Scope = "rates:latest"

// ScopeForDate maps an already-validated requested date (YYYY-MM-DD or empty)
// to its cache scope.
func ScopeForDate(date string) Scope {
	if date == "" {
		return ScopeLatest
	}
	return Scope("rates:" + date)
}

// Date returns the pinned date of a dated scope, or "" for the latest scope.
func (s Scope) Date() string {
	if s == ScopeLatest {
		return ""
	}
	return string(s[len("rates:"):])
}

func (s Scope) String() string {
	return string(s)
}

// RatesResult is a snapshot stamped with its retrieval instant. Stale marks a
// degraded response served from an expired cache entry after a feed failure;
// StaleReason then carries the failure message.
type RatesResult struct {
	Snapshot    RateSnapshot
	Timestamp   int64 // retrieval instant, epoch milliseconds
	Stale       bool
	StaleReason string
}
