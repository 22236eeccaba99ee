package integrations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// defaultPushoverURL is the Pushover message API endpoint. Overridable for
// tests.
const defaultPushoverURL = "https://api.pushover.net/1/messages.json"

// PushoverConfig holds Pushover notification configuration.
type PushoverConfig struct {
	Token    string // application API token
	UserKey  string // user or group key
	Priority int    // -2..2 per the Pushover API
	Sound    string // optional notification sound name
	Endpoint string // API endpoint, defaults to the public Pushover API
}

// Validate validates the Pushover configuration.
func (c *PushoverConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.UserKey == "" {
		return fmt.Errorf("user key is required")
	}
	if c.Priority < -2 || c.Priority > 2 {
		return fmt.Errorf("priority must be between -2 and 2")
	}
	return nil
}

// PushoverClient sends push notifications via the Pushover API.
type PushoverClient struct {
	config     PushoverConfig
	httpClient *http.Client
}

// NewPushoverClient creates a new Pushover client.
func NewPushoverClient(config PushoverConfig) (*PushoverClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pushover config: %w", err)
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultPushoverURL
	}

	return &PushoverClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns "pushover".
func (p *PushoverClient) Name() string {
	return "pushover"
}

// Notify sends one notification with the given title and message.
func (p *PushoverClient) Notify(ctx context.Context, title, message string) error {
	form := url.Values{}
	form.Set("token", p.config.Token)
	form.Set("user", p.config.UserKey)
	form.Set("title", title)
	form.Set("message", message)
	form.Set("priority", strconv.Itoa(p.config.Priority))
	if p.config.Sound != "" {
		form.Set("sound", p.config.Sound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("pushover API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}
