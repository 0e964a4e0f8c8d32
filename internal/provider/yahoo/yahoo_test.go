package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/provider"
)

// 2020-01-02 14:30:00 UTC is 09:30 in New York.
const chartPayload = `{"chart": {"result": [{
  "meta": {"gmtoffset": -18000, "exchangeTimezoneName": "America/New_York"},
  "timestamp": [1577975460, 1577975400, 1577975520],
  "indicators": {"quote": [{
    "open":   [300.5, 300.0, null],
    "high":   [301.0, 300.9, null],
    "low":    [300.1, 299.8, null],
    "close":  [300.7, 300.4, null],
    "volume": [1000, 2000, null]
  }]}
}], "error": null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(WithChartEndpoint(ts.URL+"/chart"), WithHTTPClient(ts.Client()))
}

func TestDownloadIntraday(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chart/AAPL") {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "1m" || q.Get("range") != "7d" {
			t.Errorf("query = %v, want interval=1m range=7d", q)
		}
		_, _ = w.Write([]byte(chartPayload))
	})

	raw, err := c.Download(context.Background(), "AAPL", provider.Intraday, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if raw.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (null bar skipped)", raw.Len())
	}

	table, err := c.Format(raw)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := time.Date(2020, 1, 2, 9, 30, 0, 0, time.UTC)
	if !table[0].Time.Equal(want) {
		t.Errorf("first timestamp = %v, want exchange wall clock %v", table[0].Time, want)
	}
	if table[0].Open != 300.0 || table[1].Open != 300.5 {
		t.Errorf("rows not sorted by time: %+v", table)
	}
}

func TestDownloadPeriodOption(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("interval") != "1wk" || q.Get("range") != "5y" {
			t.Errorf("query = %v, want interval=1wk range=5y", q)
		}
		_, _ = w.Write([]byte(chartPayload))
	})
	if _, err := c.Download(context.Background(), "AAPL", provider.Weekly, provider.Options{"period": "5y"}); err != nil {
		t.Fatalf("Download: %v", err)
	}
}

func TestDownloadErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   apperror.Code
	}{
		{"api error", http.StatusOK, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`, apperror.Download},
		{"empty", http.StatusOK, `{"chart": {"result": [], "error": null}}`, apperror.NoData},
		{"status", http.StatusTooManyRequests, `Too Many Requests`, apperror.Download},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Download(context.Background(), "ZZZZ", provider.Daily, nil)
			if got := apperror.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}
