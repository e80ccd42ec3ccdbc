package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

// RatesFeed fetches and normalizes the upstream daily-rates document into a
// validated snapshot. date is a YYYY-MM-DD pin or "" for the latest document.
// The returned DateSource tells which feed date field stamped the snapshot.
// Failures are normalized into the feed error taxonomy before they leave the
// adapter; raw transport errors never escape.
type RatesFeed interface {
	Fetch(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error)
}
