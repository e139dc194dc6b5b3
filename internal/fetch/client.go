// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gohl/hlsdk/internal/fsio"
)

const (
	// DefaultMaxBytes caps the response body size (1 GiB).
	DefaultMaxBytes int64 = 1 << 30

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "hlsdk/dev"
)

type (
	// Client downloads archives over HTTP.
	Client struct {
		httpClient *http.Client
		userAgent  string
		checksum   string
		maxBytes   int64
	}

	// Option configures a Client during construction.
	Option func(*Client)

	// limitedReader fails with ErrTooLarge once more than n bytes were read.
	limitedReader struct {
		r io.Reader
		n int64
	}
)

// WithHTTPClient sets a custom HTTP client, useful for tests, timeouts or
// proxy configurations.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithChecksum requires the downloaded body to have the given hex SHA-256.
// An empty value disables verification.
func WithChecksum(hexHash string) Option {
	return func(c *Client) {
		c.checksum = hexHash
	}
}

// WithMaxBytes overrides DefaultMaxBytes. Values <= 0 are ignored.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// NewClient creates a Client with http.DefaultClient, DefaultUserAgent and
// DefaultMaxBytes unless overridden by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  DefaultUserAgent,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads rawURL into dest and returns dest's absolute path.
// Any prior file at dest is replaced only after the whole body was written
// and, if configured, its checksum verified.
func (c *Client) Fetch(ctx context.Context, rawURL, dest string) (string, error) {
	safeURL := redactURL(rawURL)

	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return "", &NetworkError{URL: safeURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{URL: safeURL, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > c.maxBytes {
		return "", &NetworkError{URL: safeURL, Cause: fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, resp.ContentLength, c.maxBytes)}
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", &fsio.IOError{Path: dest, Phase: fsio.PhaseCreate, Cause: err}
	}

	var verify func(string) error
	if c.checksum != "" {
		verify = func(tmpPath string) error {
			err := VerifyFile(tmpPath, abs, c.checksum)
			var sumErr *ChecksumError
			if err != nil && !errors.As(err, &sumErr) {
				return &fsio.IOError{Path: tmpPath, Phase: fsio.PhaseRead, Cause: err}
			}
			return err
		}
	}

	body := &limitedReader{r: resp.Body, n: c.maxBytes}
	if _, err := fsio.WriteFileAtomic(abs, body, verify); err != nil {
		if isLocal(err) {
			return "", err
		}
		return "", &NetworkError{URL: safeURL, Cause: err}
	}

	return abs, nil
}

// doRequest creates and executes a GET request with the client's headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// isLocal reports whether err came from the local side of the transfer
// (the filesystem or checksum verification) rather than from the body.
func isLocal(err error) bool {
	return errors.Is(err, fsio.ErrIOFailure) || errors.Is(err, ErrChecksumMismatch)
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n < 0 {
		return 0, fmt.Errorf("%w: body exceeds limit", ErrTooLarge)
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, fmt.Errorf("%w: body exceeds limit", ErrTooLarge)
	}
	return n, err
}
