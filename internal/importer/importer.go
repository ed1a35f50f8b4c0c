// Package importer fetches photos from the remote photo-generation webhook.
// The webhook takes a profile name and a count and answers with base64
// encoded images.
package importer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned when no webhook URL is set.
	ErrNotConfigured = errors.New("import webhook not configured")
	// ErrNoPhotos is returned when the webhook produced no usable image.
	ErrNoPhotos = errors.New("no photos returned")
	// ErrRemote wraps a failure reported by the webhook itself.
	ErrRemote = errors.New("import webhook failed")
)

// Config holds the webhook settings.
type Config struct {
	WebhookURL string `toml:"webhook_url"`
	TimeoutMs  int    `toml:"timeout_ms"`
	// MaxResponseBytes bounds the response body.
	MaxResponseBytes int64 `toml:"max_response_bytes"`
}

// DefaultConfig returns the default import configuration. The webhook can
// take a while to render images, hence the long timeout.
func DefaultConfig() Config {
	return Config{
		TimeoutMs:        120000,
		MaxResponseBytes: 256 << 20,
	}
}

// Image is one decoded photo.
type Image struct {
	MimeType string
	Data     []byte
}

type request struct {
	Username string `json:"instagramUsername"`
	Count    int    `json:"topXCount"`
}

type response struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Photos []struct {
			Base64Data string `json:"base64Data"`
			MimeType   string `json:"mimeType"`
		} `json:"photos"`
		Message string `json:"message"`
	} `json:"data"`
}

// Client calls the webhook.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client for cfg.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
	}
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c.cfg.WebhookURL != ""
}

// Fetch asks the webhook for count photos of username. Entries without data
// or with undecodable data are dropped.
func (c *Client) Fetch(ctx context.Context, username string, count int) ([]Image, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}

	body, err := json.Marshal(request{Username: username, Count: count})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	var r response
	limit := c.cfg.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultConfig().MaxResponseBytes
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, limit)).Decode(&r); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to parse webhook response: %w", err)
	}

	if r.Success != nil && !*r.Success {
		msg := r.Error
		if msg == "" {
			msg = "failed to process photos"
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	}
	if r.Data == nil || r.Data.Photos == nil {
		return nil, fmt.Errorf("%w: response did not contain a photos array", ErrRemote)
	}
	if len(r.Data.Photos) == 0 {
		if r.Data.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoPhotos, r.Data.Message)
		}
		return nil, ErrNoPhotos
	}

	images := make([]Image, 0, len(r.Data.Photos))
	for i, p := range r.Data.Photos {
		if p.Base64Data == "" || p.MimeType == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.Base64Data)
		if err != nil {
			log.Printf("Dropping imported photo %d: %v", i, err)
			continue
		}
		images = append(images, Image{MimeType: p.MimeType, Data: data})
	}
	if len(images) == 0 {
		return nil, ErrNoPhotos
	}

	log.Printf("Imported %d photos for %s", len(images), username)
	return images, nil
}
