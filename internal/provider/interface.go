package provider

import (
	"context"
	"strings"

	"stockdaq/internal/apperror"
	"stockdaq/internal/model"
)

// Adapter is the abstraction used by the acquisition loop when accessing a data source.
// Download fetches a vendor table; Format maps it onto the canonical schema.
type Adapter interface {
	Name() string
	Download(ctx context.Context, symbol string, f Frequency, opts Options) (*RawTable, error)
	Format(raw *RawTable) (model.Table, error)
}

// Frequency is the bar size requested from a source.
type Frequency string

const (
	Intraday Frequency = "intraday"
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Monthly  Frequency = "monthly"
)

// ParseFrequency normalizes s.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Intraday, Daily, Weekly, Monthly:
		return f, nil
	default:
		return "", apperror.New(apperror.InvalidFrequency, "%q frequency not available (use: intraday, daily, weekly, monthly)", s)
	}
}

// Options carries source specific download parameters such as "interval" or "outputsize".
type Options map[string]string

// Get returns the value of key, or def when it is unset or blank.
func (o Options) Get(key, def string) string {
	if v := strings.TrimSpace(o[key]); v != "" {
		return v
	}
	return def
}
