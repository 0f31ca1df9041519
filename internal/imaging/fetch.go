package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/privacy"
)

// DefaultMaxImageBytes bounds remote image downloads
const DefaultMaxImageBytes int64 = 10 << 20

const fetchTimeout = 30 * time.Second

// IsURL reports whether source is an http(s) URL
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch downloads an image over http(s). Responses larger than maxBytes are rejected.
func Fetch(ctx context.Context, client *http.Client, rawURL string, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Newf("invalid image URL").
			Component("imaging").
			Category(errors.CategoryValidation).
			NetworkContext(rawURL, 0).
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryNetwork).
			NetworkContext(rawURL, client.Timeout).
			Timing("fetch_image", time.Since(start)).
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			GetLogger().Debug("failed to close image response body", logger.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("image download failed with status %d", resp.StatusCode).
			Component("imaging").
			Category(errors.CategoryNetwork).
			NetworkContext(rawURL, client.Timeout).
			Context("status_code", resp.StatusCode).
			Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryNetwork).
			Context("operation", "read_image_body").
			Build()
	}
	if int64(len(data)) > maxBytes {
		return nil, errors.Newf("image exceeds %d bytes", maxBytes).
			Component("imaging").
			Category(errors.CategoryLimit).
			Build()
	}

	GetLogger().Debug("image fetched",
		logger.String("url", privacy.AnonymizeURL(rawURL)),
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)))

	return data, nil
}

// Open loads an image from a file path or an http(s) URL and decodes it
func Open(ctx context.Context, client *http.Client, source string, maxBytes int64) (*Photo, error) {
	if !IsURL(source) {
		return DecodeFile(source)
	}
	data, err := Fetch(ctx, client, source, maxBytes)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
