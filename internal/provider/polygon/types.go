package polygon

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// BarRaw is one aggregate bar as returned by the API.
type BarRaw struct {
	Timestamp    int64           `json:"t"` // Unix timestamp in milliseconds
	Open         float64         `json:"o"`
	High         float64         `json:"h"`
	Low          float64         `json:"l"`
	Close        float64         `json:"c"`
	Volume       FlexibleFloat64 `json:"v"`
	VWAP         float64         `json:"vw,omitempty"`
	Transactions FlexibleFloat64 `json:"n,omitempty"`
}

// AggregatesResponse is the aggregates endpoint response.
type AggregatesResponse struct {
	Ticker       string   `json:"ticker"`
	QueryCount   int      `json:"queryCount"`
	ResultsCount int      `json:"resultsCount"`
	Adjusted     bool     `json:"adjusted"`
	Results      []BarRaw `json:"results"`
	Status       string   `json:"status"`
	RequestID    string   `json:"request_id"`
	Error        string   `json:"error,omitempty"`
	Message      string   `json:"message,omitempty"`
	NextURL      string   `json:"next_url,omitempty"`
}

// FlexibleFloat64 accepts a number, a number in scientific notation, or a quoted number.
type FlexibleFloat64 float64

func (f *FlexibleFloat64) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexibleFloat64(val)
		return nil
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexibleFloat64(floatVal)
		return nil
	}

	return fmt.Errorf("cannot parse as number: %s", string(data))
}

func (f FlexibleFloat64) Float64() float64 {
	return float64(f)
}
