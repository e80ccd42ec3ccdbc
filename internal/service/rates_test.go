package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-rates-service/internal/adapter/cache"
	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

type MockFeed struct {
	FetchFunc func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error)
	calls     int
}

func (m *MockFeed) Fetch(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
	m.calls++
	return m.FetchFunc(ctx, date)
}

func testSnapshot(date string) model.RateSnapshot {
	return model.RateSnapshot{
		Base: model.RUB,
		Date: date,
		Rates: map[model.Currency]float64{
			model.RUB: 1,
			model.USD: 92.5,
			model.EUR: 100.1,
			model.GBP: 117.3,
			model.CNY: 12.7,
			model.JPY: 0.61,
			model.CHF: 104.9,
		},
	}
}

var serverNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(feed *MockFeed) (*RatesService, *cache.MemoryCache) {
	log := logger.NewNopLogger()
	ratesCache := cache.NewMemoryCacheWithClock(log, func() time.Time { return serverNow })
	svc := NewRatesServiceWithClock(feed, ratesCache, time.Hour, log, func() time.Time { return serverNow })
	return svc, ratesCache
}

func TestRatesService_DateValidation(t *testing.T) {
	feed := &MockFeed{
		FetchFunc: func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
			t.Fatal("feed must not be called for invalid dates")
			return nil, "", nil
		},
	}
	svc, _ := newTestService(feed)

	testCases := []struct {
		name          string
		date          string
		expectedError error
	}{
		{"bad format", "05-03-2024", ErrInvalidDate},
		{"not a date", "hello", ErrInvalidDate},
		{"invalid calendar day", "2024-02-30", ErrInvalidDate},
		{"future date", "2099-01-01", ErrFutureDate},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetRates(context.Background(), tc.date)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedError)
			assert.Zero(t, feed.calls)
		})
	}
}

func TestRatesService_FreshCacheHitSkipsFeed(t *testing.T) {
	feed := &MockFeed{
		FetchFunc: func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
			t.Fatal("feed must not be called on a fresh cache hit")
			return nil, "", nil
		},
	}
	svc, ratesCache := newTestService(feed)

	require.NoError(t, ratesCache.Set(context.Background(), model.ScopeLatest, testSnapshot("2024-03-10"), time.Hour))

	result, err := svc.GetRates(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", result.Snapshot.Date)
	assert.False(t, result.Stale)
	assert.Equal(t, serverNow.UnixMilli(), result.Timestamp)
}

func TestRatesService_FetchesAndCachesOnMiss(t *testing.T) {
	feed := &MockFeed{
		FetchFunc: func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
			assert.Equal(t, "", date)
			snapshot := testSnapshot("2024-03-10")
			return &snapshot, model.DateSourceCurrent, nil
		},
	}
	svc, ratesCache := newTestService(feed)

	result, err := svc.GetRates(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, result.Stale)
	assert.Equal(t, 1, feed.calls)

	cached, err := ratesCache.GetFresh(context.Background(), model.ScopeLatest)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "2024-03-10", cached.Date)

	// Second request is served from cache.
	_, err = svc.GetRates(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.calls)
}

func TestRatesService_FeedFailureWithEmptyCache(t *testing.T) {
	feed := &MockFeed{
		FetchFunc: func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
			return nil, "", errors.New("upstream exploded")
		},
	}
	svc, _ := newTestService(feed)

	_, err := svc.GetRates(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestRatesService_FeedFailureServesStale(t *testing.T) {
	feed := &MockFeed{
		FetchFunc: func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
			return nil, "", errors.New("upstream exploded")
		},
	}
	svc, ratesCache := newTestService(feed)

	// Seed an entry that is already past its TTL.
	require.NoError(t, ratesCache.Set(context.Background(), model.ScopeLatest, testSnapshot("2024-03-09"), -time.Minute))

	result, err := svc.GetRates(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, result.Stale)
	assert.Contains(t, result.StaleReason, "upstream exploded")
	assert.Equal(t, "2024-03-09", result.Snapshot.Date)
	assert.Equal(t, serverNow.UnixMilli(), result.Timestamp)
}

func TestRatesService_DatedScopeIsIndependent(t *testing.T) {
	feed := &MockFeed{
		FetchFunc: func(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
			snapshot := testSnapshot(date)
			return &snapshot, model.DateSourceCurrent, nil
		},
	}
	svc, ratesCache := newTestService(feed)

	result, err := svc.GetRates(context.Background(), "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", result.Snapshot.Date)

	cached, err := ratesCache.GetFresh(context.Background(), model.ScopeForDate("2024-03-05"))
	require.NoError(t, err)
	assert.NotNil(t, cached)

	cached, err = ratesCache.GetFresh(context.Background(), model.ScopeLatest)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
