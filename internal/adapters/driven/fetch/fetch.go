// Package fetch downloads EPUBs from remote URLs for import.
//
// The client is deliberately polite: requests are paced through a
// token bucket, transient failures are retried with backoff, and a
// Retry-After header is honoured when the server sends one.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
)

const (
	// requestTimeout bounds a single download attempt.
	requestTimeout = 30 * time.Second

	// retryCount is the number of retries after the first attempt.
	retryCount = 3

	// requestsPerSecond paces requests to any host.
	requestsPerSecond = 1

	// defaultMaxSize caps downloads when no limit is configured.
	defaultMaxSize = 50 << 20

	// fallbackFilename is the hint when neither the URL nor the
	// response names the file.
	fallbackFilename = "download.epub"

	userAgent = "quire/1.0 (+https://github.com/quirelabs/quire)"
)

// Ensure Client implements the interface.
var _ driven.Fetcher = (*Client)(nil)

// Client is a resty-backed implementation of driven.Fetcher.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	maxSize int64
}

// NewClient creates a fetcher that refuses bodies larger than maxSize
// bytes. A non-positive maxSize falls back to 50 MiB.
func NewClient(maxSize int64) *Client {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	httpClient := resty.New().
		SetTimeout(requestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetHeader("User-Agent", userAgent).
		AddRetryCondition(shouldRetry).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			// Zero falls back to the jittered backoff.
			return retryDelay(resp), nil
		})

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		maxSize: maxSize,
	}
}

// Fetch retrieves the resource and returns a filename hint and the body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", nil, fmt.Errorf("fetching %s: %w", rawURL, domain.ErrNotFound)
	case resp.StatusCode() != http.StatusOK:
		return "", nil, fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode())
	}

	name := filenameHint(rawURL, resp.Header().Get("Content-Disposition"))
	if contentType := resp.Header().Get("Content-Type"); !looksLikeEPUB(contentType, name) {
		return "", nil, fmt.Errorf("fetching %s: content type %q: %w", rawURL, contentType, domain.ErrInvalidInput)
	}

	if cl := resp.RawResponse.ContentLength; cl > c.maxSize {
		return "", nil, fmt.Errorf("fetching %s: %d bytes: %w", rawURL, cl, domain.ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(body, c.maxSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(data)) > c.maxSize {
		return "", nil, fmt.Errorf("fetching %s: %w", rawURL, domain.ErrTooLarge)
	}

	return name, data, nil
}

// looksLikeEPUB guards against HTML landing pages posing as downloads.
// EPUB and generic binary content types pass, as does anything the
// server or URL explicitly names *.epub.
func looksLikeEPUB(contentType, filename string) bool {
	if filename != fallbackFilename && strings.HasSuffix(strings.ToLower(filename), ".epub") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		return true
	}
	switch mediaType {
	case "application/epub+zip", "application/zip", "application/octet-stream":
		return true
	}
	return false
}

// shouldRetry retries on transport errors, 429 and server errors.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode() == http.StatusTooManyRequests ||
		resp.StatusCode() >= http.StatusInternalServerError
}

// retryDelay parses the Retry-After header, either delay seconds or
// an HTTP date. Returns zero when absent or unparseable.
func retryDelay(resp *resty.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header().Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// filenameHint derives a filename from the Content-Disposition header,
// falling back to the URL path.
func filenameHint(rawURL, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := sanitiseHint(params["filename"]); name != "" {
				return name
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := sanitiseHint(u.Path); name != "" {
			return name
		}
	}
	return fallbackFilename
}

// sanitiseHint reduces a hint to a bare filename.
func sanitiseHint(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	return name
}
