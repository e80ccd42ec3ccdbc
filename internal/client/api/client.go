package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// RatesResponse is the proxy's rates payload as seen by the client.
type RatesResponse struct {
	Base      model.Currency             `json:"base"`
	Date      string                     `json:"date"`
	Rates     map[model.Currency]float64 `json:"rates"`
	Timestamp int64                      `json:"timestamp"`
	Stale     bool                       `json:"stale,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// StatusError is a non-success response from the proxy, carrying the server's
// user-facing message when one was decodable.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rates request failed with HTTP %d", e.StatusCode)
}

// ErrInvalidPayload marks a response that decoded but failed shape checks.
// Callers treat it exactly like a fetch failure.
var ErrInvalidPayload = errors.New("invalid rates payload")

// Client is the HTTP client for the rates proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetRates requests rates for an optional YYYY-MM-DD date ("" means latest)
// and validates the payload before handing it to the caller, so a malformed
// proxy response degrades into an ordinary fetch failure.
func (c *Client) GetRates(ctx context.Context, date string) (*RatesResponse, error) {
	endpoint := c.baseURL + "/api/rates"
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}

	var payload RatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := validatePayload(&payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func (c *Client) statusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		statusErr.Message = body.Message
	}

	c.log.Warn("Rates request rejected", "status", resp.StatusCode, "message", statusErr.Message)
	return statusErr
}

func validatePayload(payload *RatesResponse) error {
	if payload.Base != model.BaseCurrency {
		return fmt.Errorf("%w: unsupported base %q", ErrInvalidPayload, payload.Base)
	}
	if payload.Date == "" {
		return fmt.Errorf("%w: missing rates date", ErrInvalidPayload)
	}
	if payload.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidPayload)
	}
	for _, currency := range model.SupportedCurrencies {
		rate, ok := payload.Rates[currency]
		if !ok {
			return fmt.Errorf("%w: missing rate for %s", ErrInvalidPayload, currency)
		}
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return fmt.Errorf("%w: invalid rate for %s", ErrInvalidPayload, currency)
		}
	}
	return nil
}
