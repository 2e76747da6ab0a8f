package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seopulse/seopulse/internal/core"
)

const requestTimeout = 30 * time.Second

// Client forwards work to the external crawler/worker service. It never
// retries; a failed dispatch is recorded on the audit or job row and
// re-triggered manually or by the next scheduled run.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// StartAudit asks the crawler service to begin a crawl for an audit row.
func (c *Client) StartAudit(ctx context.Context, req core.StartAuditRequest) error {
	return c.post(ctx, "/api/audit", req)
}

// GeneratePdf asks the worker to render a PDF for a generation job.
func (c *Client) GeneratePdf(ctx context.Context, req core.GeneratePdfRequest) error {
	return c.post(ctx, "/api/pdf/generate", req)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("crawler service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &core.UpstreamError{Service: "crawler", Status: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

var _ core.CrawlerClient = (*Client)(nil)
