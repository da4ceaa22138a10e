// Package download fetches remote video content for upload.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/outlierscope/internal/logger"
)

const (
	DefaultMaxBytes    = 200 << 20
	DefaultContentType = "video/mp4"
	defaultTimeout     = 60 * time.Second
	userAgent          = "Mozilla/5.0 (compatible; outlierscope/1.0)"
)

// ErrTooLarge is returned when the content exceeds the size limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// Client downloads content over HTTP. It makes a single attempt per call.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewClient creates a download client. A non-positive maxBytes uses the default.
func NewClient(timeout time.Duration, maxBytes int64) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Fetch downloads url and returns its body and media type.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "video/*,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, "", fmt.Errorf("%w: %s > %s", ErrTooLarge,
			humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(c.maxBytes)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, "", fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.IBytes(uint64(c.maxBytes)))
	}

	contentType := DefaultContentType
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			contentType = mt
		}
	}

	logger.Info("Downloaded %s (%s)", humanize.IBytes(uint64(len(data))), contentType)
	return data, contentType, nil
}
