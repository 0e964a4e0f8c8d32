// Package alphavantage downloads time series from the Alpha Vantage query API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
	"stockdaq/internal/provider"
)

const (
	defaultEndpoint = "https://www.alphavantage.co/query"
	name            = "alphavantage"
)

// Columns is the Alpha Vantage naming of the canonical fields.
var Columns = provider.ColumnMap{"1. open", "2. high", "3. low", "4. close", "5. volume"}

// Client implements provider.Adapter for Alpha Vantage.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type Option func(*Client)

// WithEndpoint overrides the query URL (tests).
func WithEndpoint(u string) Option { return func(c *Client) { c.endpoint = u } }

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return name }

// query builds the request parameters for f.
// Intraday honours "interval" (1min..60min) and "outputsize"; daily honours "outputsize".
func (c *Client) query(symbol string, f provider.Frequency, opts provider.Options) (url.Values, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	switch f {
	case provider.Intraday:
		q.Set("function", "TIME_SERIES_INTRADAY")
		q.Set("interval", opts.Get("interval", "1min"))
		q.Set("outputsize", opts.Get("outputsize", "full"))
	case provider.Daily:
		q.Set("function", "TIME_SERIES_DAILY")
		q.Set("outputsize", opts.Get("outputsize", "full"))
	case provider.Weekly:
		q.Set("function", "TIME_SERIES_WEEKLY")
	case provider.Monthly:
		q.Set("function", "TIME_SERIES_MONTHLY")
	default:
		return nil, apperror.New(apperror.InvalidFrequency, "%q frequency not available", string(f))
	}
	return q, nil
}

func (c *Client) Download(ctx context.Context, symbol string, f provider.Frequency, opts provider.Options) (*provider.RawTable, error) {
	q, err := c.query(symbol, f, opts)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.Download, err, "alphavantage %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.Download, err, "alphavantage %s: read body", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.Download, "alphavantage %s: status %d: %s", symbol, resp.StatusCode, string(body))
	}
	return decode(symbol, body)
}

// decode parses the {"Meta Data": ..., "<... Time Series ...>": {stamp: {"1. open": "..."}}} payload.
func decode(symbol string, body []byte) (*provider.RawTable, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperror.Wrap(apperror.Download, err, "alphavantage %s: decode", symbol)
	}
	for _, k := range []string{"Error Message", "Note", "Information"} {
		if msg, ok := doc[k]; ok {
			var s string
			_ = json.Unmarshal(msg, &s)
			return nil, apperror.New(apperror.Download, "alphavantage %s: %s", symbol, s)
		}
	}

	var series map[string]map[string]string
	for k, v := range doc {
		if !strings.Contains(k, "Time Series") {
			continue
		}
		if err := json.Unmarshal(v, &series); err != nil {
			return nil, apperror.Wrap(apperror.Download, err, "alphavantage %s: decode %q", symbol, k)
		}
		break
	}
	if len(series) == 0 {
		return nil, apperror.New(apperror.NoData, "alphavantage %s: no time series in response", symbol)
	}

	raw := provider.NewRawTable(name)
	for stamp, fields := range series {
		ts, err := parseStamp(stamp)
		if err != nil {
			return nil, apperror.Wrap(apperror.Download, err, "alphavantage %s", symbol)
		}
		raw.Index = append(raw.Index, ts)
		for col, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, apperror.Wrap(apperror.Download, err, "alphavantage %s: %s %q", symbol, stamp, col)
			}
			raw.Columns[col] = append(raw.Columns[col], v)
		}
	}
	return raw, nil
}

func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse(model.TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func (c *Client) Format(raw *provider.RawTable) (model.Table, error) {
	return provider.Format(raw, Columns)
}
