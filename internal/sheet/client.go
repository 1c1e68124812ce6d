package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Transport configuration constants.
const (
	// DefaultBaseURL is the Google Sheets host serving CSV exports.
	DefaultBaseURL = "https://docs.google.com"

	// DefaultTimeout bounds a single export request.
	DefaultTimeout = 30 * time.Second

	// maxFetchRetries bounds transient-failure retries before the run
	// degrades to an empty dataset.
	maxFetchRetries = 2

	// maxResponseSize caps the export body read.
	maxResponseSize = 16 * 1024 * 1024
)

// Client fetches the public CSV export of a Google Sheet.
type Client struct {
	SheetID    string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a sheet client for the given sheet identifier.
func NewClient(sheetID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		SheetID: sheetID,
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL returns a new client pointed at a custom host (for testing).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		SheetID:    c.SheetID,
		BaseURL:    baseURL,
		HTTPClient: c.HTTPClient,
	}
}

// ExportURL returns the CSV export endpoint for the sheet.
func (c *Client) ExportURL() string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv", c.BaseURL, c.SheetID)
}

// FetchCSV retrieves the sheet's CSV export body. Transient failures are
// retried with exponential backoff; a non-retryable response or retry
// exhaustion returns an error, which callers must degrade to an empty
// dataset rather than treating as fatal.
func (c *Client) FetchCSV(ctx context.Context) (string, error) {
	var body string

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ExportURL(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building export request: %w", err))
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching sheet export: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("sheet export returned status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("sheet export returned status %d", resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("reading sheet export: %w", err)
		}
		body = string(data)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return body, nil
}

// FetchRecords fetches the sheet and parses it in the given mode.
func (c *Client) FetchRecords(ctx context.Context, mode Mode) ([]Record, []string, error) {
	raw, err := c.FetchCSV(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, warnings := Parse(raw, mode)
	return records, warnings, nil
}
