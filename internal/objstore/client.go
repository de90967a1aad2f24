// Package objstore uploads installation photos to the hosted
// object-storage bucket and hands out public or signed URLs.
package objstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// Config configures the bucket client.
type Config struct {
	BaseURL string
	APIKey  string
	Bucket  string
	Timeout time.Duration
}

// Client is a bucket-scoped object-storage client.
type Client struct {
	client *resty.Client
	base   string
	bucket string
}

// New creates a client for the configured bucket.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Authorization", "Bearer "+cfg.APIKey)
	return &Client{client: client, base: base, bucket: cfg.Bucket}
}

// UploadPath builds the object key for a new upload:
// uploads/<unix-ms>-<random>.<ext>. The random element keeps two uploads
// in the same millisecond apart.
func UploadPath(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("uploads/%d-%s.%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

func (c *Client) objectPath(key string) string {
	return "/storage/v1/object/" + c.bucket + "/" + key
}

// Upload stores data at the given object key. Existing objects are not
// overwritten.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "false").
		SetHeader("Cache-Control", "max-age=3600").
		SetBody(data).
		Post(c.objectPath(key))
	if err != nil {
		return fmt.Errorf("objstore: upload %s: %w", key, err)
	}
	if resp.IsError() {
		return fmt.Errorf("objstore: upload %s: %s", key, resp.Status())
	}
	return nil
}

// Remove deletes the object at the given key.
func (c *Client) Remove(ctx context.Context, key string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(c.objectPath(key))
	if err != nil {
		return fmt.Errorf("objstore: remove %s: %w", key, err)
	}
	if resp.IsError() {
		return fmt.Errorf("objstore: remove %s: %s", key, resp.Status())
	}
	return nil
}

// PublicURL returns the unauthenticated URL for a public bucket object.
// No request is made; the bucket policy decides whether it works.
func (c *Client) PublicURL(key string) string {
	return c.base + "/storage/v1/object/public/" + c.bucket + "/" + key
}

// SignedURL asks the store for a temporary URL to a private object.
func (c *Client) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	var out struct {
		SignedURL string `json:"signedURL"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"expiresIn": int(expiry.Seconds())}).
		SetResult(&out).
		Post("/storage/v1/object/sign/" + c.bucket + "/" + key)
	if err != nil {
		return "", fmt.Errorf("objstore: sign %s: %w", key, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("objstore: sign %s: %s", key, resp.Status())
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("objstore: sign %s: empty URL in response", key)
	}
	return c.base + "/storage/v1" + out.SignedURL, nil
}
