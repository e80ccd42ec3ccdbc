package utils

import (
	"fmt"
	"regexp"
	"time"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD calendar date. The parsed value must
// round-trip to the exact input, so numerically invalid days such as
// 2024-02-30 are rejected rather than normalized.
func ParseDate(dateStr string) (time.Time, error) {
	if !dateRe.MatchString(dateStr) {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD form", dateStr)
	}
	parsed, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", dateStr, err)
	}
	if FormatDate(parsed) != dateStr {
		return time.Time{}, fmt.Errorf("date %q is not a real calendar date", dateStr)
	}
	return parsed, nil
}

func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}
