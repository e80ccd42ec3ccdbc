package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"
	"currency-rates-service/pkg/utils"
)

var (
	ErrInvalidDate     = errors.New("invalid date, use YYYY-MM-DD")
	ErrFutureDate      = errors.New("date cannot be in the future")
	ErrFeedUnavailable = errors.New("failed to fetch rates from external API")
)

// RatesService orchestrates feed and cache into one request/response cycle
// with a fixed fallback order: fresh cache entry, then live feed, then stale
// cache entry, then failure. Concurrent misses on one scope may each call the
// feed; results are idempotent snapshots so the last write simply wins.
type RatesService struct {
	feed  ports.RatesFeed
	cache ports.RatesCache
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

func NewRatesService(feed ports.RatesFeed, cache ports.RatesCache, ttl time.Duration, log *logger.Logger) *RatesService {
	return &RatesService{
		feed:  feed,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
		log:   log,
	}
}

// NewRatesServiceWithClock is for tests that need to pin the server clock.
func NewRatesServiceWithClock(feed ports.RatesFeed, cache ports.RatesCache, ttl time.Duration, log *logger.Logger, now func() time.Time) *RatesService {
	s := NewRatesService(feed, cache, ttl, log)
	s.now = now
	return s
}

// GetRates serves rates for the requested date ("" means latest). Every
// returned result is stamped with the retrieval instant, never the feed's
// publication date.
func (s *RatesService) GetRates(ctx context.Context, requestedDate string) (*model.RatesResult, error) {
	date, err := s.validateRequestedDate(requestedDate)
	if err != nil {
		return nil, err
	}

	scope := model.ScopeForDate(date)

	fresh, err := s.cache.GetFresh(ctx, scope)
	if err != nil {
		// Cache infrastructure trouble is not a request failure; treat it as
		// a miss and let the feed decide.
		s.log.Error("Cache read failed", "scope", scope, "error", err)
	}
	if fresh != nil {
		s.log.Info("Serving fresh cached rates", "scope", scope)
		return s.stamp(*fresh), nil
	}

	snapshot, dateSource, fetchErr := s.feed.Fetch(ctx, date)
	if fetchErr == nil {
		if err := s.cache.Set(ctx, scope, *snapshot, s.ttl); err != nil {
			s.log.Error("Failed to cache rates", "scope", scope, "error", err)
		}
		s.log.Info("Serving live rates", "scope", scope, "date", snapshot.Date, "date_source", dateSource)
		return s.stamp(*snapshot), nil
	}

	s.log.Warn("Live rates fetch failed", "scope", scope, "error", fetchErr)

	stale, err := s.cache.GetStale(ctx, scope)
	if err != nil {
		s.log.Error("Stale cache read failed", "scope", scope, "error", err)
	}
	if stale != nil {
		s.log.Info("Serving stale cached rates", "scope", scope)
		result := s.stamp(*stale)
		result.Stale = true
		result.StaleReason = fetchErr.Error()
		return result, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, fetchErr)
}

func (s *RatesService) stamp(snapshot model.RateSnapshot) *model.RatesResult {
	return &model.RatesResult{
		Snapshot:  snapshot,
		Timestamp: s.now().UnixMilli(),
	}
}

// validateRequestedDate normalizes the optional date parameter. Violations
// fail before any cache or feed access.
func (s *RatesService) validateRequestedDate(requestedDate string) (string, error) {
	trimmed := strings.TrimSpace(requestedDate)
	if trimmed == "" {
		return "", nil
	}

	if _, err := utils.ParseDate(trimmed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	today := utils.FormatDate(s.now())
	if trimmed > today {
		return "", ErrFutureDate
	}

	return trimmed, nil
}
