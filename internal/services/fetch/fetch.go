package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"zxmeta/internal/services"
)

// DefaultMaxBytes bounds a single download.
const DefaultMaxBytes = 32 << 20

// errTooLarge reports a body that exceeded the size limit.
var errTooLarge = errors.New("response exceeds size limit")

// Fetcher transfers a URL to a local path.
type Fetcher interface {
	Download(ctx context.Context, rawURL, dest string) error
}

// Client downloads over HTTP.
type Client struct {
	userAgent  string
	httpClient *http.Client
	maxBytes   int64
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBytes overrides the largest body Download accepts.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// New creates a download client.
func New(opts ...Option) *Client {
	client := &Client{
		userAgent:  "zxspectrum-frontend-meta-generator",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Download writes the body of rawURL to dest, replacing any existing file.
// The file only appears once the whole body has been received.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	rawURL = strings.ReplaceAll(strings.TrimSpace(rawURL), " ", "%20")
	if rawURL == "" {
		return errors.New("download url must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "assets", "download", "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "assets", "download", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "assets", "download", fmt.Sprintf("%s returned 404", rawURL), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "assets", "download", fmt.Sprintf("%s returned %d (latency=%v)", rawURL, resp.StatusCode, latency), nil)
	}

	body := &cappedReader{r: io.LimitReader(resp.Body, c.maxBytes+1), max: c.maxBytes}
	if err := atomic.WriteFile(dest, body); err != nil {
		if body.exceeded() {
			return services.Wrap(services.ErrValidation, "assets", "download",
				fmt.Sprintf("%s is larger than %d bytes", rawURL, c.maxBytes), errTooLarge)
		}
		return services.Wrap(services.ErrTransient, "assets", "download", "write "+dest, err)
	}
	return nil
}

// cappedReader fails once more than max bytes have been read, so an
// oversized body never lands as a truncated file.
type cappedReader struct {
	r    io.Reader
	read int64
	max  int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.exceeded() {
		return n, errTooLarge
	}
	return n, err
}

func (c *cappedReader) exceeded() bool {
	return c.read > c.max
}
