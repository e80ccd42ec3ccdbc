package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

// RatesService is the request/response cycle over feed and cache: validate
// the optional requested date, serve a fresh cache hit, otherwise fetch and
// cache, otherwise fall back to a stale entry.
type RatesService interface {
	GetRates(ctx context.Context, requestedDate string) (*model.RatesResult, error)
}
