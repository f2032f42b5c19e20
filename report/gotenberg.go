package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	convertPath    = "/forms/chromium/convert/html"
	indexFileName  = "index.html"
)

// Client renders PDFs through a Gotenberg instance. Conversion goes through
// the Chromium HTML route, so the payload must be a standalone HTML page.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient builds a Gotenberg client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping probes the Gotenberg health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg health: status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts an HTML page into PDF bytes.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	body, contentType, err := multipartHTML(html)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, convertPath, contentType, body)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gotenberg convert: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

// multipartHTML packs the page as the index.html form file Gotenberg's
// Chromium route expects.
func multipartHTML(html string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", indexFileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
