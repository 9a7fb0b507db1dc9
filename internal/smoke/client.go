package smoke

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
	"github.com/okian/highlights/internal/domain/model"
)

// Client calls the highlights HTTP API.
type Client struct {
	c *httpjson.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	c, err := httpjson.New(baseURL, httpjson.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return &Client{c: c}, nil
}

type list[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type preferences struct {
	Preferences []model.UserPreference `json:"preferences"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.c.Do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// Submit posts a segment.
func (c *Client) Submit(ctx context.Context, seg model.Segment) (model.SegmentStatus, error) {
	var st model.SegmentStatus
	err := c.c.Do(ctx, http.MethodPost, "/segments", nil, seg, &st)
	return st, err
}

// Status fetches the progress of a segment.
func (c *Client) Status(ctx context.Context, id string) (model.SegmentStatus, error) {
	var st model.SegmentStatus
	err := c.c.Do(ctx, http.MethodGet, "/segments/"+url.PathEscape(id), nil, nil, &st)
	return st, err
}

// Highlights lists highlights of a source; clipsOnly keeps those with a
// generated clip.
func (c *Client) Highlights(ctx context.Context, sourceID string, clipsOnly bool, limit int) ([]model.EnrichedHighlight, error) {
	q := url.Values{}
	if sourceID != "" {
		q.Set("sourceId", sourceID)
	}
	if clipsOnly {
		q.Set("clipGenerated", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out list[model.EnrichedHighlight]
	err := c.c.Do(ctx, http.MethodGet, "/highlights", q, nil, &out)
	return out.Items, err
}

// SetPreferences replaces a viewer's preferences.
func (c *Client) SetPreferences(ctx context.Context, userID string, prefs []model.UserPreference) error {
	return c.c.Do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID)+"/preferences", nil, preferences{Preferences: prefs}, nil)
}

// Personalized fetches the ranked highlights of a viewer.
func (c *Client) Personalized(ctx context.Context, userID string, limit int) ([]model.PersonalizedHighlight, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out list[model.PersonalizedHighlight]
	err := c.c.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/highlights", q, nil, &out)
	return out.Items, err
}

// Rescan asks the service to submit missing clip jobs.
func (c *Client) Rescan(ctx context.Context) (int, error) {
	var out struct {
		Submitted int `json:"submitted"`
	}
	err := c.c.Do(ctx, http.MethodPost, "/clips/rescan", nil, nil, &out)
	return out.Submitted, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.c.Do(ctx, http.MethodGet, "/stats", nil, nil, &out)
	return out, err
}
