package app

import (
	"strings"

	"stockdaq/internal/apperror"
	"stockdaq/internal/provider"
	"stockdaq/internal/provider/alphavantage"
	"stockdaq/internal/provider/polygon"
	"stockdaq/internal/provider/yahoo"
)

// AdapterName maps a configured api name to its canonical form.
// "Alpha Vantage" and "yfinance" are accepted for old configurations.
func AdapterName(s string) (string, error) {
	n := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch n {
	case "alphavantage", "alpha_vantage":
		return "alphavantage", nil
	case "yahoo", "yfinance":
		return "yahoo", nil
	case "polygon":
		return "polygon", nil
	default:
		return "", apperror.New(apperror.InvalidConfig, "unsupported api: %s. Options: alphavantage, yahoo, polygon", s)
	}
}

// NewAdapter creates the adapter called name.
func NewAdapter(name string, cfg *Config) (provider.Adapter, error) {
	n, err := AdapterName(name)
	if err != nil {
		return nil, err
	}
	switch n {
	case "alphavantage":
		key := cfg.APIKeys["alphavantage"]
		if key == "" {
			return nil, apperror.New(apperror.InvalidConfig, "alphavantage: api_keys.alphavantage or ALPHAVANTAGE_API_KEY not set")
		}
		return alphavantage.New(key), nil
	case "polygon":
		key := cfg.APIKeys["polygon"]
		if key == "" {
			return nil, apperror.New(apperror.InvalidConfig, "polygon: api_keys.polygon or POLYGON_API_KEY not set")
		}
		return polygon.New(key), nil
	default:
		return yahoo.New(), nil
	}
}
