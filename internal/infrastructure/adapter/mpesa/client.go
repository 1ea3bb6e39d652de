// Package mpesa implements the payment gateway port against the Daraja
// STK push API.
package mpesa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/core"
)

// Token lifetime is one hour; refresh early to avoid using a token that
// expires mid-request.
const tokenLifetime = 50 * time.Minute

// Config holds the provider credentials and endpoints. All values are
// injected from configuration, never hard-coded.
type Config struct {
	BaseURL        string // Sandbox or production API root
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	CallbackURL    string
	Timeout        time.Duration
}

// Validate reports missing credentials as a configuration error, fatal for
// the initiation path
func (c Config) Validate() error {
	missing := ""
	switch {
	case c.BaseURL == "":
		missing = "base URL"
	case c.ConsumerKey == "":
		missing = "consumer key"
	case c.ConsumerSecret == "":
		missing = "consumer secret"
	case c.ShortCode == "":
		missing = "shortcode"
	case c.PassKey == "":
		missing = "passkey"
	case c.CallbackURL == "":
		missing = "callback URL"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s not set", errs.ErrGatewayConfig, missing)
	}
	return nil
}

// Client talks to the Daraja API. It caches the OAuth access token in
// memory and refreshes it on expiry or auth failure.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	timeProvider core.TimeProvider
	logger       core.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new Daraja client
func NewClient(cfg Config, timeProvider core.TimeProvider, logger core.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: timeout},
		timeProvider: timeProvider,
		logger:       logger,
	}, nil
}

// accessToken returns a cached token or fetches a fresh one from the
// provider's OAuth endpoint
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.timeProvider.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error())
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("OAuth token request rejected", map[string]any{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return "", fmt.Errorf("%w: token request returned %d", errs.ErrGatewayRejected, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %s", errs.ErrGatewayUnavailable, err.Error())
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = c.timeProvider.Now().Add(tokenLifetime)

	c.logger.Debug("Acquired gateway access token", map[string]any{
		"expires_at": c.tokenExpiry,
	})
	return c.token, nil
}

// invalidateToken drops the cached token so the next call re-authenticates
func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiry = time.Time{}
}
