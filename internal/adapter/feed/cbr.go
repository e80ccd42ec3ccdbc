package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
	"currency-rates-service/pkg/utils"
)

const (
	// DefaultBaseURL serves the bank's daily quotes as JSON.
	DefaultBaseURL = "https://www.cbr-xml-daily.ru"

	dailyPath   = "/daily_json.js"
	archivePath = "/archive/%04d/%02d/%02d/daily_json.js"
)

// Feed failure taxonomy. Every error returned by Fetch wraps ErrFetch, so
// callers that only care about "the feed failed" can match it with errors.Is,
// while the finer-grained sentinels stay distinguishable.
var (
	ErrFetch            = errors.New("rates feed fetch failed")
	ErrTimeout          = fmt.Errorf("%w: request timed out", ErrFetch)
	ErrUpstreamStatus   = fmt.Errorf("%w: upstream returned a non-OK status", ErrFetch)
	ErrMalformedPayload = fmt.Errorf("%w: malformed upstream payload", ErrFetch)
	ErrMissingCurrency  = fmt.Errorf("%w: required currency missing in payload", ErrFetch)
	ErrInvalidRate      = fmt.Errorf("%w: invalid rate value in payload", ErrFetch)
)

// CbrFeed fetches the central bank's daily JSON document and normalizes it
// into a RateSnapshot. It owns all knowledge of the upstream schema; nothing
// upstream-shaped leaves this package.
type CbrFeed struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewCbrFeed(baseURL string, timeout time.Duration, log *logger.Logger) *CbrFeed {
	return &CbrFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Fetch retrieves the daily document, or the archived document when date is a
// YYYY-MM-DD pin, and assembles a validated snapshot. Partial success is not
// an outcome: any missing or invalid required entry fails the whole fetch.
func (f *CbrFeed) Fetch(ctx context.Context, date string) (*model.RateSnapshot, model.DateSource, error) {
	url, err := f.documentURL(date)
	if err != nil {
		return nil, "", err
	}

	body, err := f.retrieve(ctx, url)
	if err != nil {
		return nil, "", err
	}

	return f.normalize(body)
}

func (f *CbrFeed) documentURL(date string) (string, error) {
	if date == "" {
		return f.baseURL + dailyPath, nil
	}
	parsed, err := utils.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("%w: bad date pin: %v", ErrFetch, err)
	}
	return f.baseURL + fmt.Sprintf(archivePath, parsed.Year(), parsed.Month(), parsed.Day()), nil
}

func (f *CbrFeed) retrieve(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}
	return body, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// normalize turns the raw document into a snapshot: pick a date field,
// normalize its representation, and derive every required foreign rate as
// quoted value over quoted nominal.
func (f *CbrFeed) normalize(body []byte) (*model.RateSnapshot, model.DateSource, error) {
	if !gjson.ValidBytes(body) {
		return nil, "", fmt.Errorf("%w: not valid JSON", ErrMalformedPayload)
	}

	valute := gjson.GetBytes(body, "Valute")
	if !valute.Exists() || !valute.IsObject() {
		return nil, "", fmt.Errorf("%w: missing Valute field", ErrMalformedPayload)
	}

	rawDate, dateSource, err := pickDateField(body)
	if err != nil {
		return nil, "", err
	}

	date, err := normalizeDate(rawDate)
	if err != nil {
		return nil, "", err
	}

	if dateSource == model.DateSourcePrevious {
		f.log.Warn("Feed document has no current date, using previous date", "date", date)
	}

	rates := map[model.Currency]float64{
		model.BaseCurrency: 1,
	}

	for _, currency := range model.ForeignCurrencies {
		item := valute.Get(string(currency))
		if !item.Exists() {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingCurrency, currency)
		}

		rate, err := basePerUnit(currency, item)
		if err != nil {
			return nil, "", err
		}
		rates[currency] = rate
	}

	snapshot := &model.RateSnapshot{
		Base:  model.BaseCurrency,
		Date:  date,
		Rates: rates,
	}
	if err := snapshot.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRate, err)
	}

	return snapshot, dateSource, nil
}

func pickDateField(body []byte) (string, model.DateSource, error) {
	if current := gjson.GetBytes(body, "Date"); current.Exists() && current.String() != "" {
		return current.String(), model.DateSourceCurrent, nil
	}
	if previous := gjson.GetBytes(body, "PreviousDate"); previous.Exists() && previous.String() != "" {
		return previous.String(), model.DateSourcePrevious, nil
	}
	return "", "", fmt.Errorf("%w: missing Date and PreviousDate", ErrMalformedPayload)
}

// normalizeDate accepts either a value with a literal YYYY-MM-DD prefix (the
// feed publishes timestamps like 2024-03-05T11:30:00+03:00) or anything
// time.Parse can read as RFC3339, reduced to the calendar date.
func normalizeDate(rawDate string) (string, error) {
	if len(rawDate) >= len(model.DateLayout) {
		prefix := rawDate[:len(model.DateLayout)]
		if _, err := utils.ParseDate(prefix); err == nil {
			return prefix, nil
		}
	}
	parsed, err := time.Parse(time.RFC3339, rawDate)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable date %q", ErrMalformedPayload, rawDate)
	}
	return utils.FormatDate(parsed.UTC()), nil
}

func basePerUnit(currency model.Currency, item gjson.Result) (float64, error) {
	nominal := item.Get("Nominal").Float()
	if nominal <= 0 {
		return 0, fmt.Errorf("%w: non-positive nominal for %s", ErrInvalidRate, currency)
	}

	value := item.Get("Value").Float()
	rate := value / nominal
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return 0, fmt.Errorf("%w: computed rate for %s is not a positive finite number", ErrInvalidRate, currency)
	}
	return rate, nil
}
