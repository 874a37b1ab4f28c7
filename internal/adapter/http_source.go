// Package adapter provides transport implementations of the engine's remote
// collaborators. The HTTP adapter speaks the reference record server's REST
// API; any other transport only has to satisfy engine.RemoteSource and,
// optionally, engine.RemoteWriter.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cliniclink/recordsync/internal/config"
	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/models"
)

// HTTPRecordSource fetches and pushes one collection's records over the
// record server's REST API. It implements both engine.RemoteSource[T] and
// engine.RemoteWriter[T].
type HTTPRecordSource[T any] struct {
	client     *resty.Client
	collection string

	logger *logger.Logger
}

// pushRequest is the wire form of a batch submission of pending records.
type pushRequest[T any] struct {
	Collection string             `json:"collection"`
	Records    []models.Record[T] `json:"records"`
}

// pushResponse carries the ids the server accepted.
type pushResponse struct {
	Confirmed []string `json:"confirmed"`
}

// NewHTTPRecordSource constructs an HTTP implementation of the remote
// collaborators for one collection. It normalises and validates the base URL
// from remoteCfg.BaseURL and configures the underlying client with the
// resolved base URL and request timeout.
//
// Returns an error if remoteCfg.BaseURL is empty or cannot be parsed as a
// valid URL.
func NewHTTPRecordSource[T any](remoteCfg config.Remote, collection string, log *logger.Logger) (*HTTPRecordSource[T], error) {
	baseURL, err := normalizeBaseURL(remoteCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}

	timeout := remoteCfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &HTTPRecordSource[T]{client: cli, collection: collection, logger: log}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// FetchAll implements engine.RemoteSource. It GETs the full collection from
// GET /api/records/ and decodes it into typed records. Transport failures and
// 5xx responses come back wrapped in ErrRemoteUnavailable so the engine can
// treat them as retriable.
func (h *HTTPRecordSource[T]) FetchAll(ctx context.Context) ([]models.Record[T], error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("collection", h.collection).
		Get("/api/records/")
	if err != nil {
		return nil, fmt.Errorf("%w: fetch request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var records []models.Record[T]
	if err = json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}

	return records, nil
}

// Push implements engine.RemoteWriter. It POSTs the pending records to
// POST /api/records/push and returns the ids the server confirmed. A partial
// confirmation is not an error; the engine keeps unconfirmed records pending.
func (h *HTTPRecordSource[T]) Push(ctx context.Context, records []models.Record[T]) ([]string, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(pushRequest[T]{Collection: h.collection, Records: records}).
		Post("/api/records/push")
	if err != nil {
		return nil, fmt.Errorf("%w: push request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var pr pushResponse
	if err = json.Unmarshal(resp.Body(), &pr); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}

	h.logger.Debug().
		Str("collection", h.collection).
		Int("pushed", len(records)).
		Int("confirmed", len(pr.Confirmed)).
		Msg("pending records submitted")
	return pr.Confirmed, nil
}
