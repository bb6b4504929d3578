package books

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

// Config holds the CLI configuration
type Config struct {
	BooksURL  string
	APIKey    string
	APISecret string
	CSRFToken string // Sent on mutating requests (create endpoints)
	Brand     string // CLI branding shown in TUI (default: "Books CLI")
	Currency  string // Currency symbol for totals (default: "$")
}

// Client handles API requests against the accounting backend
type Client struct {
	Config     *Config
	HTTPClient *http.Client
	BaseURL    string
}

// LoadConfig reads the .books-config file
func LoadConfig() (*Config, error) {
	// Find config file in various locations
	configPaths := []string{
		".books-config",
		"../.books-config",
		filepath.Join(filepath.Dir(os.Args[0]), ".books-config"),
		filepath.Join(filepath.Dir(os.Args[0]), "..", ".books-config"),
	}

	var configPath string
	for _, p := range configPaths {
		if _, err := os.Stat(p); err == nil {
			configPath = p
			break
		}
	}

	if configPath == "" {
		return nil, fmt.Errorf("config file not found. Copy .books-config.example to .books-config")
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open config: %w", err)
	}
	defer file.Close()

	config := &Config{
		Brand:    "Books CLI",
		Currency: "$",
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")

		switch key {
		case "BOOKS_URL":
			config.BooksURL = value
		case "BOOKS_API_KEY":
			config.APIKey = value
		case "BOOKS_API_SECRET":
			config.APISecret = value
		case "BOOKS_CSRF_TOKEN":
			config.CSRFToken = value
		case "BOOKS_BRAND":
			if value != "" {
				config.Brand = value
			}
		case "BOOKS_CURRENCY":
			if value != "" {
				config.Currency = value
			}
		}
	}

	if config.BooksURL == "" || config.APIKey == "" || config.APISecret == "" {
		return nil, fmt.Errorf("missing required config: BOOKS_URL, BOOKS_API_KEY, BOOKS_API_SECRET")
	}

	return config, nil
}

// NewClient creates a new API client
func NewClient(config *Config) *Client {
	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		BaseURL: strings.TrimRight(config.BooksURL, "/"),
	}
}

// do performs a request against an API path and returns the raw body.
// Non-2xx statuses are failures.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	fullURL := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.Config.APIKey, c.Config.APISecret))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.Config.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", c.Config.CSRFToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// Request makes an API request and decodes the response object
func (c *Client) Request(method, path string, body interface{}) (map[string]interface{}, error) {
	respBody, err := c.do(context.Background(), method, path, body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %s", string(respBody))
	}

	if errMsg, ok := result["error"].(string); ok && errMsg != "" {
		return nil, fmt.Errorf("API error: %s", errMsg)
	}

	return result, nil
}

// FormatCurrency renders an amount with the configured currency symbol
func (c *Client) FormatCurrency(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-%s%.2f", c.Config.Currency, -amount)
	}
	return fmt.Sprintf("%s%.2f", c.Config.Currency, amount)
}

// CmdPing tests the connection
func (c *Client) CmdPing() error {
	fmt.Printf("%sTesting connection to backend...%s\n", Blue, Reset)

	body, err := c.do(context.Background(), http.MethodGet, "/api/auth/whoami/", nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)

	if user, ok := result["user"].(string); ok && user != "" {
		fmt.Printf("%s✓ Connection successful%s\n", Green, Reset)
		fmt.Printf("  Authenticated as: %s%s%s\n", Yellow, user, Reset)
		fmt.Printf("  URL: %s\n", c.BaseURL)
		return nil
	}

	return fmt.Errorf("authentication failed: %s", string(body))
}

// CmdConfig shows current configuration
func (c *Client) CmdConfig() error {
	fmt.Printf("%sCurrent configuration:%s\n", Blue, Reset)
	fmt.Printf("  URL: %s\n", c.Config.BooksURL)

	keyPreview := c.Config.APIKey
	if len(keyPreview) > 8 {
		keyPreview = keyPreview[:8]
	}
	fmt.Printf("  API Key: %s...\n", keyPreview)
	fmt.Printf("  API Secret: ****\n")

	if c.Config.CSRFToken != "" {
		fmt.Printf("  CSRF Token: configured\n")
	} else {
		fmt.Printf("  CSRF Token: %snot configured%s (needed for create endpoints)\n", Yellow, Reset)
	}

	fmt.Printf("  Brand: %s\n", c.Config.Brand)
	fmt.Printf("  Currency: %s\n", c.Config.Currency)

	return nil
}
