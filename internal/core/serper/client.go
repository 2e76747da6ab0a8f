package serper

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

const defaultBaseURL = "https://google.serper.dev"

// Client queries Serper.dev for organic Google results. Used by the weekly
// keyword rank tracker.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, defaultBaseURL)
}

// NewWithBaseURL is used by tests to point the client at a local server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type searchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Position int    `json:"position"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

// Search returns up to limit organic results for the keyword.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]core.RankResult, error) {
	if limit <= 0 {
		limit = 100
	}
	body, err := json.Marshal(searchRequest{Query: keyword, Num: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &core.UpstreamError{Service: "serper", Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	out := make([]core.RankResult, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		out = append(out, core.RankResult{Position: r.Position, Title: r.Title, Link: r.Link})
	}
	return out, nil
}

var _ core.RankProvider = (*Client)(nil)
