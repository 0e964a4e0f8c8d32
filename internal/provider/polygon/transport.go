package polygon

import (
	"net/http"
	"time"
)

// baseTransportConfig returns the HTTP transport used for aggregate requests.
// Minute ranges can take a while to stream, so header timeouts are generous.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		ResponseHeaderTimeout: 2 * time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		DisableKeepAlives:     true,
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: baseTransportConfig(),
		Timeout:   5 * time.Minute,
	}
}
