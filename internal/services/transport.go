package services

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// throttledTransport is an [http.RoundTripper] that waits on a token
// bucket before each outbound request. One transport is shared by all
// calls to a single service, so pagination walks, lookups, and batch
// writes all draw from the same budget.
type throttledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns an HTTP client paced at rps requests per second
// with an explicit per-call timeout. A long-running full-library walk must
// never stall on an unresponsive page fetch.
func NewHTTPClient(rps float64, timeout time.Duration) *http.Client {
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &throttledTransport{
			base:    http.DefaultTransport,
			limiter: rate.NewLimiter(rate.Limit(rps), 1),
		},
	}
}
