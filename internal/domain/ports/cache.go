package ports

import (
	"context"
	"time"

	"currency-rates-service/internal/domain/model"
)

// RatesCache is the server-side snapshot cache keyed by scope. Expiry is
// fully passive: GetFresh stops returning an entry once its TTL elapses, but
// the entry stays reachable through GetStale until overwritten, so the
// service can fall back to degraded data after a feed failure.
type RatesCache interface {
	Set(ctx context.Context, scope model.Scope, snapshot model.RateSnapshot, ttl time.Duration) error
	GetFresh(ctx context.Context, scope model.Scope) (*model.RateSnapshot, error)
	GetStale(ctx context.Context, scope model.Scope) (*model.RateSnapshot, error)
	IsFresh(ctx context.Context, scope model.Scope) (bool, error)
	// Clear drops the given scopes, or everything when called with none.
	Clear(ctx context.Context, scopes ...model.Scope) error
}
