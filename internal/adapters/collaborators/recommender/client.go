// Package recommender is the HTTP adapter for the external recommendation
// service used by the delegate ranking strategy.
package recommender

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/highlights/internal/adapters/collaborators/httpjson"
)

// Client fetches ordered highlight IDs per user.
type Client struct {
	http  *httpjson.Client
	limit int
}

type recommendations struct {
	HighlightIDs []string `json:"highlightIds"`
}

// New creates a recommender client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	hc, err := httpjson.New(baseURL, cfg.http...)
	if err != nil {
		return nil, fmt.Errorf("recommender client: %w", err)
	}
	return &Client{http: hc, limit: cfg.limit}, nil
}

// Recommend implements ranking.Recommender.
func (c *Client) Recommend(ctx context.Context, userID string) ([]string, error) {
	var q url.Values
	if c.limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(c.limit)}}
	}
	var out recommendations
	if err := c.http.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/recommendations", q, nil, &out); err != nil {
		return nil, err
	}
	return out.HighlightIDs, nil
}
