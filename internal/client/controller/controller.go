package controller

import (
	"context"
	"time"

	"currency-rates-service/internal/client/api"
	"currency-rates-service/internal/client/store"
	"currency-rates-service/pkg/logger"
)

// Endpoint is the live rates source. Satisfied by api.Client.
type Endpoint interface {
	GetRates(ctx context.Context, date string) (*api.RatesResponse, error)
}

// Notifier receives the non-blocking user notifications the controller emits
// while degrading: a warning when cached data is being served, an error when
// nothing is available at all.
type Notifier interface {
	Warn(title, message string)
	Error(title, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Warn(string, string)  {}
func (NopNotifier) Error(string, string) {}

// Controller drives one cache scope through the load cycle: serve the
// persisted record when it is still fresh, otherwise revalidate against the
// proxy and reconcile a failure against the persisted fallback.
type Controller struct {
	endpoint      Endpoint
	store         *store.Store
	ttl           time.Duration
	requestedDate string // "" means latest
	notifier      Notifier
	now           func() time.Time
	log           *logger.Logger

	state   *store.Record
	loading bool
	lastErr string
}

func New(endpoint Endpoint, st *store.Store, ttl time.Duration, requestedDate string, notifier Notifier, log *logger.Logger) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		endpoint:      endpoint,
		store:         st,
		ttl:           ttl,
		requestedDate: requestedDate,
		notifier:      notifier,
		now:           time.Now,
		log:           log,
	}
}

// NewWithClock is for tests that need to pin the clock.
func NewWithClock(endpoint Endpoint, st *store.Store, ttl time.Duration, requestedDate string, notifier Notifier, log *logger.Logger, now func() time.Time) *Controller {
	c := New(endpoint, st, ttl, requestedDate, notifier, log)
	c.now = now
	return c
}

// State returns the current record (nil when nothing is available), whether a
// live request is in flight, and the user-facing error message ("" when none).
func (c *Controller) State() (*store.Record, bool, string) {
	return c.state, c.loading, c.lastErr
}

func (c *Controller) scope() string {
	return store.ScopeForDate(c.requestedDate)
}

// Load is the mount flow: a fresh persisted record is served without any
// network call; otherwise the persisted record (fresh or not) is kept as the
// fallback candidate for a live request.
func (c *Controller) Load(ctx context.Context) {
	cached := c.store.Read(c.scope())
	c.state = cached
	c.lastErr = ""

	if cached != nil && c.store.IsFresh(cached, c.ttl) {
		c.log.Debug("Serving fresh persisted rates", "scope", c.scope())
		c.loading = false
		return
	}

	c.loadLive(ctx, cached)
}

// Retry re-runs the live flow with a freshly re-read fallback candidate, so a
// manual retry also benefits from any out-of-band cache update.
func (c *Controller) Retry(ctx context.Context) {
	fallback := c.store.Read(c.scope())
	c.loadLive(ctx, fallback)
}

func (c *Controller) loadLive(ctx context.Context, fallback *store.Record) {
	c.loading = true
	defer func() { c.loading = false }()

	response, err := c.endpoint.GetRates(ctx, c.requestedDate)
	if err != nil {
		c.reconcileFailure(fallback, err)
		return
	}

	record := store.Record{
		Rates: response.Rates,
		Meta: store.Meta{
			Timestamp:           response.Timestamp,
			Date:                response.Date,
			LastUpdatedLocalISO: c.now().Format(time.RFC3339),
		},
	}

	c.state = &record
	c.lastErr = ""

	if err := c.store.Write(c.scope(), record); err != nil {
		c.log.Error("Failed to persist rates", "scope", c.scope(), "error", err)
	}

	if response.Stale {
		// Feed-level staleness, distinct from our own persisted-cache
		// staleness: the proxy could not reach its upstream.
		message := response.Error
		if message == "" {
			message = "The server returned cached upstream rates."
		}
		c.notifier.Warn("Serving cached upstream data", message)
	}
}

func (c *Controller) reconcileFailure(fallback *store.Record, err error) {
	c.log.Warn("Live rates request failed", "scope", c.scope(), "error", err)

	if fallback != nil {
		c.state = fallback
		c.lastErr = ""
		c.notifier.Warn("Using local cache", "Showing rates from the local cache.")
		return
	}

	c.state = nil
	c.lastErr = err.Error()
	c.notifier.Error("Rates unavailable", c.lastErr)
}
