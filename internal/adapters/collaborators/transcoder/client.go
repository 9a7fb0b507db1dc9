// Package transcoder is the HTTP adapter for the clip transcoding service.
// Completions are not polled; the service calls back on the webhook.
package transcoder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
	"github.com/okian/highlights/internal/domain/clip"
)

// Client submits clip jobs.
type Client struct {
	http     *httpjson.Client
	callback string
}

type submitRequest struct {
	clip.Request
	CallbackURL string `json:"callbackUrl,omitempty"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

// New creates a transcoder client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	hc, err := httpjson.New(baseURL, cfg.http...)
	if err != nil {
		return nil, fmt.Errorf("transcoder client: %w", err)
	}
	return &Client{http: hc, callback: cfg.callback}, nil
}

// SubmitClip implements clip.Transcoder.
func (c *Client) SubmitClip(ctx context.Context, req clip.Request) (string, error) {
	var resp submitResponse
	err := c.http.Do(ctx, http.MethodPost, "/jobs", nil, submitRequest{Request: req, CallbackURL: c.callback}, &resp)
	if err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", ErrNoJobID
	}
	return resp.JobID, nil
}
