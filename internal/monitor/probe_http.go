package monitor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// httpProbe checks reachability by hitting the record server's /ping
// endpoint.
type httpProbe struct {
	client *resty.Client
}

// NewHTTPProbe returns a Probe against the record server at baseURL. A zero
// or negative timeout defaults to 5 seconds; an unreachable or erroring
// server counts as offline.
func NewHTTPProbe(baseURL string, timeout time.Duration) Probe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)

	return &httpProbe{client: cli}
}

func (p *httpProbe) Check(ctx context.Context) bool {
	resp, err := p.client.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}
