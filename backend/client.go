// Package backend holds the HTTP clients for the remote itinerary generator
// and the path service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// StatusError is returned when a remote answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", e.Code, e.Body)
}

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 4096

type jsonClient struct {
	url        string
	httpClient *http.Client
	logger     arbor.ILogger
}

func newJSONClient(url string, timeout time.Duration, logger arbor.ILogger) jsonClient {
	return jsonClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// post sends in as JSON and decodes a 2xx response into out.
func (c jsonClient) post(ctx context.Context, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("url", c.url).
		Int("status", resp.StatusCode).
		Str("elapsed", time.Since(start).String()).
		Msg("Remote call finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
