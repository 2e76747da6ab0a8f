package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/seopulse/seopulse/internal/core"
)

// Client verifies webhook deliveries against the PayPal REST API using a
// client-credentials token. The token is cached until shortly before expiry.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	webhookID    string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(baseURL, clientID, clientSecret, webhookID string) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		webhookID:    webhookID,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &core.UpstreamError{Service: "paypal", Status: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	// renew a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// VerifyWebhookSignature asks PayPal whether a webhook delivery is genuine.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers core.WebhookHeaders, rawEvent json.RawMessage) (bool, error) {
	token, err := c.token(ctx)
	if err != nil {
		return false, err
	}

	payload, err := json.Marshal(verifyRequest{
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		TransmissionID:   headers.TransmissionID,
		TransmissionSig:  headers.TransmissionSig,
		TransmissionTime: headers.TransmissionTime,
		WebhookID:        c.webhookID,
		WebhookEvent:     rawEvent,
	})
	if err != nil {
		return false, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/notifications/verify-webhook-signature", strings.NewReader(string(payload)))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("paypal verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &core.UpstreamError{Service: "paypal", Status: resp.StatusCode, Body: string(body)}
	}

	var verdict verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	return verdict.VerificationStatus == "SUCCESS", nil
}

var _ core.WebhookVerifier = (*Client)(nil)
