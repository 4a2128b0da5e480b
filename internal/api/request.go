package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Source names used in FetchError.
const (
	SourceNetwork = "network"
	SourcePrice   = "price"
)

// APIError represents a non-success HTTP response from a source.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// FetchError reports a failed fetch from an external source: transport failure,
// non-success status, malformed JSON, or a missing or mistyped field.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status behind the failure, or 0 if the
// failure did not come from a response status.
func (e *FetchError) StatusCode() int {
	var apiErr *APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// doRequest performs a GET request against fullURL with query merged into
// any query string fullURL already carries.
func (c *Client) doRequest(ctx context.Context, fullURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	// Caller values replace configured ones for the same key
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			merged[key] = values
		}
		u.RawQuery = merged.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// get performs a single GET and decodes the JSON body into result.
// Every failure is wrapped in a *FetchError for source.
func (c *Client) get(ctx context.Context, source, fullURL string, query url.Values, result any) error {
	body, err := c.doRequest(ctx, fullURL, query)
	if err != nil {
		return &FetchError{Source: source, Err: err}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &FetchError{Source: source, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	c.logger.Debug("source response", "source", source, "bytes", len(body))
	return nil
}
