// Package yahoo downloads OHLCV bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	_ "time/tzdata"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
	"stockdaq/internal/provider"
)

const (
	defaultChartEndpoint = "https://query1.finance.yahoo.com/v8/finance/chart"
	name                 = "yahoo"
)

// Columns is the Yahoo naming of the canonical fields.
var Columns = provider.ColumnMap{"Open", "High", "Low", "Close", "Volume"}

// Client implements provider.Adapter for Yahoo Finance.
type Client struct {
	endpoint string
	client   *http.Client
}

type Option func(*Client)

// WithChartEndpoint overrides the chart URL prefix (tests).
func WithChartEndpoint(u string) Option { return func(c *Client) { c.endpoint = u } }

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

// New creates a client. Yahoo needs no API key.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: defaultChartEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return name }

// chartResponse is the response structure from the chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// interval maps f to the chart API interval and range, honouring "interval" and "period".
func interval(f provider.Frequency, opts provider.Options) (string, string, error) {
	switch f {
	case provider.Intraday:
		return opts.Get("interval", "1m"), opts.Get("period", "7d"), nil
	case provider.Daily:
		return "1d", opts.Get("period", "max"), nil
	case provider.Weekly:
		return "1wk", opts.Get("period", "max"), nil
	case provider.Monthly:
		return "1mo", opts.Get("period", "max"), nil
	default:
		return "", "", apperror.New(apperror.InvalidFrequency, "%q frequency not available", string(f))
	}
}

func (c *Client) Download(ctx context.Context, symbol string, f provider.Frequency, opts provider.Options) (*provider.RawTable, error) {
	iv, rng, err := interval(f, opts)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s", c.endpoint, url.PathEscape(symbol), url.QueryEscape(iv), url.QueryEscape(rng))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo: create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.Download, err, "yahoo %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.Download, err, "yahoo %s: read body", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.Download, "yahoo %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, apperror.Wrap(apperror.Download, err, "yahoo %s: decode", symbol)
	}
	if chart.Chart.Error != nil {
		return nil, apperror.New(apperror.Download, "yahoo %s: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperror.New(apperror.NoData, "yahoo %s: no data returned", symbol)
	}

	result := chart.Chart.Result[0]
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	quote := result.Indicators.Quote[0]
	raw := provider.NewRawTable(name, Columns[:]...)
	for i, sec := range result.Timestamp {
		o, h, l, cl, v := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i), at(quote.Volume, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue // null bars (holidays, halted minutes)
		}
		vol := 0.0
		if v != nil {
			vol = *v
		}
		raw.Add(time.Unix(sec, 0).In(loc), *o, *h, *l, *cl, vol)
	}
	if raw.Len() == 0 {
		return nil, apperror.New(apperror.NoData, "yahoo %s: only null bars returned", symbol)
	}
	return raw, nil
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

// exchangeLocation prefers the named zone and falls back to the fixed offset.
func exchangeLocation(tz string, offset int) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.FixedZone("", offset)
}

func (c *Client) Format(raw *provider.RawTable) (model.Table, error) {
	return provider.Format(raw, Columns)
}
