// Package cmd holds the operator subcommands that talk to a running
// statusd over its local API.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultTimeout = 10 * time.Second

// apiClient is a minimal client for the statusd HTTP API.
type apiClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// clientFlags carries the connection flags shared by every subcommand.
type clientFlags struct {
	server   string
	username string
	password string
}

// register adds the shared connection flags to cmd.
func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", defaultServer(), "statusd API address")
	cmd.Flags().StringVar(&f.username, "username", os.Getenv("STATUSD_AUTH_USERNAME"), "API username")
	cmd.Flags().StringVar(&f.password, "password", os.Getenv("STATUSD_AUTH_PASSWORD"), "API password")
}

func (f *clientFlags) client() *apiClient {
	return &apiClient{
		baseURL:  strings.TrimRight(f.server, "/"),
		username: f.username,
		password: f.password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func defaultServer() string {
	if s := os.Getenv("STATUSD_SERVER"); s != "" {
		return s
	}
	return "http://127.0.0.1:8800"
}

func (c *apiClient) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// call runs one request and decodes the JSON response into out when
// out is non-nil. Non-2xx responses become errors carrying the body.
func (c *apiClient) call(ctx context.Context, method, path string, body io.Reader, out any) error {
	resp, err := c.request(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("failed to reach statusd at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// fail prints err and exits non-zero.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
