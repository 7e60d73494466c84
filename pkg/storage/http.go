package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPBackend serves http:// and https:// URIs.
type HTTPBackend struct {
	// Client overrides the default HTTP client when set.
	Client *http.Client
}

func (hb *HTTPBackend) client() *http.Client {
	if hb.Client != nil {
		return hb.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// Open fetches a URL with GET.
func (hb *HTTPBackend) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := hb.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d fetching '%s'", resp.StatusCode, uri)
	}
	return resp.Body, nil
}

// Write uploads data with PUT.
func (hb *HTTPBackend) Write(ctx context.Context, uri string, data io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, data)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := hb.client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d uploading '%s'", resp.StatusCode, uri)
	}
	return nil
}
