package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

const validDocument = `{
	"Date": "2024-03-05T11:30:00+03:00",
	"PreviousDate": "2024-03-04T11:30:00+03:00",
	"Valute": {
		"USD": {"CharCode": "USD", "Nominal": 1, "Value": 92.5},
		"EUR": {"CharCode": "EUR", "Nominal": 1, "Value": 100.1},
		"GBP": {"CharCode": "GBP", "Nominal": 1, "Value": 117.3},
		"CNY": {"CharCode": "CNY", "Nominal": 10, "Value": 127.0},
		"JPY": {"CharCode": "JPY", "Nominal": 100, "Value": 61.0},
		"CHF": {"CharCode": "CHF", "Nominal": 1, "Value": 104.9}
	}
}`

func newTestFeed(t *testing.T, handler http.HandlerFunc) (*CbrFeed, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCbrFeed(server.URL, 5*time.Second, logger.NewNopLogger()), server
}

func TestCbrFeed_FetchLatest(t *testing.T) {
	f, _ := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/daily_json.js", r.URL.Path)
		fmt.Fprint(w, validDocument)
	})

	snapshot, dateSource, err := f.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.DateSourceCurrent, dateSource)
	assert.Equal(t, model.RUB, snapshot.Base)
	assert.Equal(t, "2024-03-05", snapshot.Date)
	assert.Equal(t, 1.0, snapshot.Rates[model.RUB])
	assert.InDelta(t, 92.5, snapshot.Rates[model.USD], 1e-9)
	assert.InDelta(t, 12.7, snapshot.Rates[model.CNY], 1e-9) // 127.0 / 10
	assert.InDelta(t, 0.61, snapshot.Rates[model.JPY], 1e-9) // 61.0 / 100
	require.NoError(t, snapshot.Validate())
}

func TestCbrFeed_FetchDatedUsesArchiveURL(t *testing.T) {
	f, _ := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/archive/2024/03/05/daily_json.js", r.URL.Path)
		fmt.Fprint(w, validDocument)
	})

	_, _, err := f.Fetch(context.Background(), "2024-03-05")
	require.NoError(t, err)
}

func TestCbrFeed_PreviousDateFallback(t *testing.T) {
	document := `{
		"PreviousDate": "2024-03-04T11:30:00+03:00",
		"Valute": {
			"USD": {"CharCode": "USD", "Nominal": 1, "Value": 92.5},
			"EUR": {"CharCode": "EUR", "Nominal": 1, "Value": 100.1},
			"GBP": {"CharCode": "GBP", "Nominal": 1, "Value": 117.3},
			"CNY": {"CharCode": "CNY", "Nominal": 10, "Value": 127.0},
			"JPY": {"CharCode": "JPY", "Nominal": 100, "Value": 61.0},
			"CHF": {"CharCode": "CHF", "Nominal": 1, "Value": 104.9}
		}
	}`
	f, _ := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, document)
	})

	snapshot, dateSource, err := f.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.DateSourcePrevious, dateSource)
	assert.Equal(t, "2024-03-04", snapshot.Date)
}

func TestCbrFeed_Failures(t *testing.T) {
	testCases := []struct {
		name        string
		document    string
		expectedErr error
	}{
		{
			name:        "not JSON",
			document:    "<html>maintenance</html>",
			expectedErr: ErrMalformedPayload,
		},
		{
			name:        "missing Valute",
			document:    `{"Date": "2024-03-05T11:30:00+03:00"}`,
			expectedErr: ErrMalformedPayload,
		},
		{
			name:        "missing both date fields",
			document:    `{"Valute": {"USD": {"CharCode": "USD", "Nominal": 1, "Value": 92.5}}}`,
			expectedErr: ErrMalformedPayload,
		},
		{
			name: "unparseable date",
			document: `{
				"Date": "tomorrow-ish",
				"Valute": {"USD": {"CharCode": "USD", "Nominal": 1, "Value": 92.5}}
			}`,
			expectedErr: ErrMalformedPayload,
		},
		{
			name: "missing required currency",
			document: `{
				"Date": "2024-03-05T11:30:00+03:00",
				"Valute": {"USD": {"CharCode": "USD", "Nominal": 1, "Value": 92.5}}
			}`,
			expectedErr: ErrMissingCurrency,
		},
		{
			name: "non-positive nominal",
			document: `{
				"Date": "2024-03-05T11:30:00+03:00",
				"Valute": {
					"USD": {"CharCode": "USD", "Nominal": 0, "Value": 92.5},
					"EUR": {"CharCode": "EUR", "Nominal": 1, "Value": 100.1},
					"GBP": {"CharCode": "GBP", "Nominal": 1, "Value": 117.3},
					"CNY": {"CharCode": "CNY", "Nominal": 10, "Value": 127.0},
					"JPY": {"CharCode": "JPY", "Nominal": 100, "Value": 61.0},
					"CHF": {"CharCode": "CHF", "Nominal": 1, "Value": 104.9}
				}
			}`,
			expectedErr: ErrInvalidRate,
		},
		{
			name: "non-positive value",
			document: `{
				"Date": "2024-03-05T11:30:00+03:00",
				"Valute": {
					"USD": {"CharCode": "USD", "Nominal": 1, "Value": -1},
					"EUR": {"CharCode": "EUR", "Nominal": 1, "Value": 100.1},
					"GBP": {"CharCode": "GBP", "Nominal": 1, "Value": 117.3},
					"CNY": {"CharCode": "CNY", "Nominal": 10, "Value": 127.0},
					"JPY": {"CharCode": "JPY", "Nominal": 100, "Value": 61.0},
					"CHF": {"CharCode": "CHF", "Nominal": 1, "Value": 104.9}
				}
			}`,
			expectedErr: ErrInvalidRate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, _ := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.document)
			})

			_, _, err := f.Fetch(context.Background(), "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.ErrorIs(t, err, ErrFetch)
		})
	}
}

func TestCbrFeed_UpstreamStatus(t *testing.T) {
	f, _ := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := f.Fetch(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamStatus)
}

func TestCbrFeed_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, validDocument)
	}))
	defer server.Close()

	f := NewCbrFeed(server.URL, 1*time.Millisecond, logger.NewNopLogger())

	_, _, err := f.Fetch(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}
