package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoint is a JSON API under one base URL. Every request carries Header
// and POSTs go through the embedded Retrier.
type Endpoint struct {
	*Retrier
	BaseURL string
	Header  http.Header
}

// NewEndpoint creates an endpoint for service at baseURL. A zero
// maxRetries uses DefaultMaxRetries.
func NewEndpoint(service, baseURL string, timeout time.Duration, maxRetries int) *Endpoint {
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Endpoint{
		Retrier: &Retrier{
			Client:     &http.Client{Timeout: timeout},
			Service:    service,
			MaxRetries: maxRetries,
		},
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Header:  http.Header{},
	}
}

// PostJSON sends in as JSON to path and decodes the reply into out.
func (e *Endpoint) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	body, err := e.Do(ctx, func() (*http.Request, error) {
		req, err := e.request(ctx, http.MethodPost, path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Probe sends a single GET to path and succeeds only on 200. It is not
// retried so a health check fails fast.
func (e *Endpoint) Probe(ctx context.Context, path string) error {
	req, err := e.request(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create ping request: %w", e.Service, err)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", e.Service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: ping failed: %w", e.Service,
			&StatusError{Service: e.Service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}
	return nil
}

// Close drops idle connections.
func (e *Endpoint) Close() error {
	e.Client.CloseIdleConnections()
	return nil
}

func (e *Endpoint) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, e.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range e.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
