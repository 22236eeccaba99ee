package integrations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// NextcloudConfig holds Nextcloud WebDAV upload configuration.
type NextcloudConfig struct {
	URL      string // base URL of the Nextcloud instance
	Username string
	Password string // app password
}

// Validate validates the Nextcloud configuration.
func (c *NextcloudConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("URL is required")
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// NextcloudClient uploads files to a Nextcloud instance over WebDAV.
type NextcloudClient struct {
	config     NextcloudConfig
	httpClient *http.Client
}

// NewNextcloudClient creates a new Nextcloud client.
func NewNextcloudClient(config NextcloudConfig) (*NextcloudClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid nextcloud config: %w", err)
	}

	return &NextcloudClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns "nextcloud".
func (n *NextcloudClient) Name() string {
	return "nextcloud"
}

// davURL builds the WebDAV URL for a path under the user's files root.
func (n *NextcloudClient) davURL(parts ...string) string {
	base := strings.TrimSuffix(n.config.URL, "/")
	p := path.Join(append([]string{"remote.php", "dav", "files", n.config.Username}, parts...)...)
	return base + "/" + p
}

// ensureDir creates dir if it does not exist. Nextcloud returns 405 for
// MKCOL on an existing collection, which is not an error.
func (n *NextcloudClient) ensureDir(ctx context.Context, dir string) error {
	req, err := http.NewRequestWithContext(ctx, "MKCOL", n.davURL(dir), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(n.config.Username, n.config.Password)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusMethodNotAllowed:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("nextcloud MKCOL error: status %d, body: %s", resp.StatusCode, string(body))
	}
}

// Upload stores data as filename inside dir under the user's files root,
// creating dir if needed.
func (n *NextcloudClient) Upload(ctx context.Context, dir, filename string, data []byte) error {
	if err := n.ensureDir(ctx, dir); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, n.davURL(dir, filename), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(n.config.Username, n.config.Password)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("nextcloud upload error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}
