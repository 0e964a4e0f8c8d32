// Package polygon downloads aggregate bars from the Polygon.io REST API.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	_ "time/tzdata"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
	"stockdaq/internal/provider"
)

const (
	defaultBaseURL = "https://api.polygon.io"
	name           = "polygon"

	// Max 50k results per request
	maxLimit = 50000

	// Max days per 1-minute aggregates request (~50k bars / 960 min/day = 52 days; use 50 for safety)
	maxDaysPerRequest = 50

	// Minutes per trading day (max, extended hours)
	minPerDay = 960

	// DefaultCooldown matches the free tier limit of 5 requests per minute.
	DefaultCooldown = 12 * time.Second

	maxRetries        = 3
	defaultRetryDelay = 15 * time.Second
)

// Columns is the Polygon naming of the canonical fields.
var Columns = provider.ColumnMap{"o", "h", "l", "c", "v"}

// Client implements provider.Adapter for Polygon aggregates.
type Client struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	cooldown   time.Duration
	retryDelay time.Duration
	loc        *time.Location
	now        func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

// WithCooldown sets the pause between chunk requests of one download.
func WithCooldown(d time.Duration) Option { return func(c *Client) { c.cooldown = d } }

// WithRetryDelay sets the pause before retrying a failed or rate limited request.
func WithRetryDelay(d time.Duration) Option { return func(c *Client) { c.retryDelay = d } }

func withClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New creates a client for apiKey. Bars are reported in exchange time (America/New_York).
func New(apiKey string, opts ...Option) *Client {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		client:     newHTTPClient(),
		cooldown:   DefaultCooldown,
		retryDelay: defaultRetryDelay,
		loc:        loc,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return name }

// timespan maps f to the aggregate timespan and the default lookback window.
func timespan(f provider.Frequency) (string, time.Duration, error) {
	switch f {
	case provider.Intraday:
		return "minute", 7 * 24 * time.Hour, nil
	case provider.Daily:
		return "day", 2 * 365 * 24 * time.Hour, nil
	case provider.Weekly:
		return "week", 2 * 365 * 24 * time.Hour, nil
	case provider.Monthly:
		return "month", 2 * 365 * 24 * time.Hour, nil
	default:
		return "", 0, apperror.New(apperror.InvalidFrequency, "%q frequency not available", string(f))
	}
}

// dateRange resolves the "from" and "to" options (YYYY-MM-DD).
func (c *Client) dateRange(lookback time.Duration, opts provider.Options) (time.Time, time.Time, error) {
	now := c.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if s := opts.Get("to", ""); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.Wrap(apperror.InvalidConfig, err, "polygon: bad \"to\" date %q", s)
		}
		to = t
	}
	from := to.Add(-lookback)
	if s := opts.Get("from", ""); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.Wrap(apperror.InvalidConfig, err, "polygon: bad \"from\" date %q", s)
		}
		from = t
	}
	return from, to, nil
}

// estimatedBars returns pre-alloc capacity for [from, to]: days * 960 + 10% buffer.
func estimatedBars(from, to time.Time) int {
	if from.After(to) {
		return 0
	}
	days := int(to.Sub(from).Hours()/24) + 1
	n := days * minPerDay
	n = n + n/10
	if n > 500000 {
		n = 500000
	}
	return n
}

// splitDateRangeIntoChunks splits [from, to] into chunks of at most maxDays days.
func splitDateRangeIntoChunks(from, to time.Time, maxDays int) [][2]time.Time {
	var chunks [][2]time.Time
	start := from.UTC()
	end := to.UTC()
	if start.After(end) {
		return chunks
	}
	for currentStart := start; !currentStart.After(end); {
		currentEnd := currentStart.AddDate(0, 0, maxDays-1)
		if currentEnd.After(end) {
			currentEnd = end
		}
		chunks = append(chunks, [2]time.Time{currentStart, currentEnd})
		if currentEnd.Equal(end) {
			break
		}
		currentStart = currentEnd.AddDate(0, 0, 1)
	}
	return chunks
}

// clampToYesterday moves a range end on or after today to the end of yesterday.
// Requests touching today come back DELAYED on non-realtime plans.
func (c *Client) clampToYesterday(chunkTo time.Time) time.Time {
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !chunkTo.Before(today) {
		return today.Add(-time.Second)
	}
	return chunkTo
}

func (c *Client) buildRequest(ctx context.Context, ticker, span string, fromMillis, toMillis int64) (*http.Request, error) {
	rawURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/%s/%d/%d", c.baseURL, url.PathEscape(ticker), span, fromMillis, toMillis)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("limit", strconv.Itoa(maxLimit))
	q.Set("sort", "asc")
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Connection", "close")
	return req, nil
}

// doRequest runs one request with retries on transport errors and 429.
// It returns (nil, nil) when the API answers DELAYED.
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*AggregatesResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429): %s", string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
		}

		var result AggregatesResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		switch result.Status {
		case "OK":
			return &result, nil
		case "DELAYED":
			return nil, nil
		default:
			return nil, fmt.Errorf("API status %s: %s%s", result.Status, result.Error, result.Message)
		}
	}
	return nil, fmt.Errorf("API call failed after %d attempts: %w", maxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Download fetches bars for symbol. Minute ranges are split into chunks of
// maxDaysPerRequest days with a cooldown between requests.
func (c *Client) Download(ctx context.Context, symbol string, f provider.Frequency, opts provider.Options) (*provider.RawTable, error) {
	span, lookback, err := timespan(f)
	if err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, apperror.New(apperror.Download, "polygon %s: no API key configured", symbol)
	}
	from, to, err := c.dateRange(lookback, opts)
	if err != nil {
		return nil, err
	}

	chunks := [][2]time.Time{{from, to}}
	capacity := 0
	if span == "minute" {
		chunks = splitDateRangeIntoChunks(from, to, maxDaysPerRequest)
		capacity = estimatedBars(from, to)
	}

	raw := provider.NewRawTable(name, Columns[:]...)
	raw.Index = make([]time.Time, 0, capacity)
	delayed := 0
	for i, ch := range chunks {
		if i > 0 {
			slog.Debug("polygon cooldown", "symbol", symbol, "chunk", i+1, "of", len(chunks), "wait", c.cooldown)
			if err := sleep(ctx, c.cooldown); err != nil {
				return nil, err
			}
		}
		chunkTo := ch[1].Add(24*time.Hour - time.Millisecond)
		if i == len(chunks)-1 {
			chunkTo = c.clampToYesterday(chunkTo)
		}
		if chunkTo.Before(ch[0]) {
			continue
		}
		req, err := c.buildRequest(ctx, symbol, span, ch[0].UnixMilli(), chunkTo.UnixMilli())
		if err != nil {
			return nil, apperror.Wrap(apperror.Download, err, "polygon %s", symbol)
		}
		resp, err := c.doRequest(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperror.Wrap(apperror.Download, err, "polygon %s", symbol)
		}
		if resp == nil {
			delayed++
			slog.Warn("polygon chunk delayed, skipped", "symbol", symbol, "from", ch[0].Format(time.DateOnly))
			continue
		}
		for _, b := range resp.Results {
			raw.Add(time.UnixMilli(b.Timestamp).In(c.loc), b.Open, b.High, b.Low, b.Close, b.Volume.Float64())
		}
	}
	if raw.Len() == 0 {
		return nil, apperror.New(apperror.NoData, "polygon %s: no bars between %s and %s (%d delayed chunks)",
			symbol, from.Format(time.DateOnly), to.Format(time.DateOnly), delayed)
	}
	return raw, nil
}

func (c *Client) Format(raw *provider.RawTable) (model.Table, error) {
	return provider.Format(raw, Columns)
}
