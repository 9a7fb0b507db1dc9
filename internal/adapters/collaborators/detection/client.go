// Package detection is the HTTP adapter for the label detection and person
// tracking service. Both analyses are asynchronous: Start returns a job ID
// and Get reports the job's status and, once it succeeded, its results.
package detection

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
	"github.com/okian/highlights/internal/domain/jobs"
	"github.com/okian/highlights/internal/domain/model"
)

// maxPages bounds result pagination of a single job.
const maxPages = 1000

// Client calls the detection service.
type Client struct {
	http          *httpjson.Client
	minConfidence float64
}

type startRequest struct {
	VideoRef      string  `json:"videoRef"`
	MinConfidence float64 `json:"minConfidence,omitempty"`
}

type startResponse struct {
	JobID string `json:"jobId"`
}

type labelPage struct {
	Status        jobs.Status            `json:"status"`
	StatusMessage string                 `json:"statusMessage,omitempty"`
	Labels        []model.DetectionEvent `json:"labels"`
	NextToken     string                 `json:"nextToken,omitempty"`
}

type personPage struct {
	Status        jobs.Status         `json:"status"`
	StatusMessage string              `json:"statusMessage,omitempty"`
	Persons       []model.PersonTrack `json:"persons"`
	NextToken     string              `json:"nextToken,omitempty"`
}

// New creates a detection client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	hc, err := httpjson.New(baseURL, cfg.http...)
	if err != nil {
		return nil, fmt.Errorf("detection client: %w", err)
	}
	return &Client{http: hc, minConfidence: cfg.minConfidence}, nil
}

// StartLabelDetection submits a label detection job for videoRef.
func (c *Client) StartLabelDetection(ctx context.Context, videoRef string) (string, error) {
	return c.start(ctx, "/label-detections", startRequest{VideoRef: videoRef, MinConfidence: c.minConfidence})
}

// StartPersonTracking submits a person tracking job for videoRef.
func (c *Client) StartPersonTracking(ctx context.Context, videoRef string) (string, error) {
	return c.start(ctx, "/person-tracking", startRequest{VideoRef: videoRef})
}

func (c *Client) start(ctx context.Context, path string, req startRequest) (string, error) {
	var resp startResponse
	if err := c.http.Do(ctx, http.MethodPost, path, nil, req, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoJobID)
	}
	return resp.JobID, nil
}

// GetLabelDetection reports a label job. Results are only returned once the
// job succeeded, with every page collected.
func (c *Client) GetLabelDetection(ctx context.Context, jobID string) (jobs.Status, []model.DetectionEvent, string, error) {
	path := "/label-detections/" + url.PathEscape(jobID)
	var out []model.DetectionEvent
	token := ""
	for page := 0; page < maxPages; page++ {
		var p labelPage
		if err := c.http.Do(ctx, http.MethodGet, path, pageQuery(token), nil, &p); err != nil {
			return "", nil, "", err
		}
		if p.Status != jobs.StatusSucceeded {
			return p.Status, nil, p.StatusMessage, nil
		}
		out = append(out, p.Labels...)
		if p.NextToken == "" {
			return p.Status, out, "", nil
		}
		token = p.NextToken
	}
	return "", nil, "", fmt.Errorf("%s: %w", path, ErrTooManyPages)
}

// GetPersonTracking reports a person tracking job.
func (c *Client) GetPersonTracking(ctx context.Context, jobID string) (jobs.Status, []model.PersonTrack, string, error) {
	path := "/person-tracking/" + url.PathEscape(jobID)
	var out []model.PersonTrack
	token := ""
	for page := 0; page < maxPages; page++ {
		var p personPage
		if err := c.http.Do(ctx, http.MethodGet, path, pageQuery(token), nil, &p); err != nil {
			return "", nil, "", err
		}
		if p.Status != jobs.StatusSucceeded {
			return p.Status, nil, p.StatusMessage, nil
		}
		out = append(out, p.Persons...)
		if p.NextToken == "" {
			return p.Status, out, "", nil
		}
		token = p.NextToken
	}
	return "", nil, "", fmt.Errorf("%s: %w", path, ErrTooManyPages)
}

func pageQuery(token string) url.Values {
	if token == "" {
		return nil
	}
	return url.Values{"nextToken": {token}}
}
