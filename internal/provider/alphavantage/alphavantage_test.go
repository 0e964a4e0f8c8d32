package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/provider"
)

const intradayPayload = `{
  "Meta Data": {"1. Information": "Intraday (1min) open, high, low, close prices and volume", "2. Symbol": "IBM", "6. Time Zone": "US/Eastern"},
  "Time Series (1min)": {
    "2020-01-02 09:31:00": {"1. open": "135.10", "2. high": "135.20", "3. low": "135.00", "4. close": "135.15", "5. volume": "1200"},
    "2020-01-02 09:30:00": {"1. open": "135.00", "2. high": "135.30", "3. low": "134.90", "4. close": "135.10", "5. volume": "5400"}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New("test-key", WithEndpoint(ts.URL), WithHTTPClient(ts.Client()))
}

func TestDownloadIntraday(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "TIME_SERIES_INTRADAY" {
			t.Errorf("function = %q", q.Get("function"))
		}
		if q.Get("interval") != "5min" {
			t.Errorf("interval = %q, want 5min", q.Get("interval"))
		}
		if q.Get("outputsize") != "full" {
			t.Errorf("outputsize = %q, want full", q.Get("outputsize"))
		}
		if q.Get("apikey") != "test-key" || q.Get("symbol") != "IBM" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(intradayPayload))
	})

	raw, err := c.Download(context.Background(), "IBM", provider.Intraday, provider.Options{"interval": "5min"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if raw.Len() != 2 {
		t.Fatalf("rows = %d, want 2", raw.Len())
	}

	table, err := c.Format(raw)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !table.IsSorted() {
		t.Error("formatted table not sorted")
	}
	first := table[0]
	if !first.Time.Equal(time.Date(2020, 1, 2, 9, 30, 0, 0, time.UTC)) || first.Open != 135 || first.Volume != 5400 {
		t.Errorf("first row = %+v", first)
	}
}

func TestDownloadDailyFunction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q", got)
		}
		_, _ = w.Write([]byte(`{"Time Series (Daily)": {"2020-01-02": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1.5", "5. volume": "10"}}}`))
	})
	raw, err := c.Download(context.Background(), "IBM", provider.Daily, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	table, err := c.Format(raw)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(table) != 1 || !table[0].Time.Equal(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("table = %+v", table)
	}
}

func TestDownloadErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   apperror.Code
	}{
		{"vendor error", http.StatusOK, `{"Error Message": "Invalid API call."}`, apperror.Download},
		{"rate note", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage!"}`, apperror.Download},
		{"no series", http.StatusOK, `{"Meta Data": {}}`, apperror.NoData},
		{"http status", http.StatusBadGateway, `oops`, apperror.Download},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Download(context.Background(), "IBM", provider.Daily, nil)
			if got := apperror.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestDownloadInvalidFrequency(t *testing.T) {
	c := New("k")
	if _, err := c.Download(context.Background(), "IBM", "hourly", nil); !apperror.Is(err, apperror.InvalidFrequency) {
		t.Errorf("err = %v, want InvalidFrequency", err)
	}
}
