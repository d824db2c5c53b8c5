// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/newsbrief/core"
)

const (
	defaultPageSize   = 50
	maxPageSize       = 100
	defaultTimeout    = 30 * time.Second
	requestsPerSecond = 2
)

// Client fetches articles from a NewsData-style JSON API.
//
// The upstream paginates with an opaque nextPage token. Requests are
// paced with a local token bucket so a large backfill does not hammer
// the endpoint; this pacing is independent of the AI call budget, which
// belongs to a different provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithRequestsPerSecond sets the upstream request pacing.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(cl *Client) {
		if rps > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithClientLogger sets a custom logger.
// Default is slog.Default().
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     slog.Default().With("component", "news"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse mirrors the upstream envelope.
type apiResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Results      []apiArticle `json:"results"`
	NextPage     string       `json:"nextPage"`
}

type apiArticle struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Link        string   `json:"link"`
	PubDate     string   `json:"pubDate"`
	SourceID    string   `json:"source_id"`
	Category    []string `json:"category"`
	ImageURL    string   `json:"image_url"`
}

// FetchLatest returns up to q.Limit of the newest articles matching q,
// following nextPage tokens as needed. Articles without a link or title
// are dropped; the upstream occasionally emits placeholder rows.
func (c *Client) FetchLatest(ctx context.Context, q Query) ([]core.Article, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var articles []core.Article
	page := ""
	for len(articles) < limit {
		resp, err := c.fetchPage(ctx, q, page, limit-len(articles))
		if err != nil {
			return nil, err
		}

		for _, raw := range resp.Results {
			article, ok := convertArticle(raw)
			if !ok {
				c.logger.Debug("dropping malformed upstream article", "link", raw.Link)
				continue
			}
			articles = append(articles, article)
			if len(articles) == limit {
				break
			}
		}

		if resp.NextPage == "" || len(resp.Results) == 0 {
			break
		}
		page = resp.NextPage
	}

	c.logger.Info("fetched articles", "count", len(articles), "category", q.Category)
	return articles, nil
}

func (c *Client) fetchPage(ctx context.Context, q Query, page string, remaining int) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	size := remaining
	if size > maxPageSize {
		size = maxPageSize
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("size", strconv.Itoa(size))
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Keywords != "" {
		params.Set("q", q.Keywords)
	}
	if page != "" {
		params.Set("page", page)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building news request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading news response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidAPIKey
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrUpstreamThrottled
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding news response: %w", err)
	}
	if parsed.Status != "success" {
		return nil, fmt.Errorf("%w: upstream status %q", ErrUpstreamUnavailable, parsed.Status)
	}
	return &parsed, nil
}

// convertArticle maps an upstream row to a core.Article. Returns false
// for rows missing the fields the pipeline depends on.
func convertArticle(raw apiArticle) (core.Article, bool) {
	if raw.Link == "" || raw.Title == "" {
		return core.Article{}, false
	}

	publishedAt, err := time.Parse("2006-01-02 15:04:05", raw.PubDate)
	if err != nil {
		publishedAt = time.Now().UTC()
	}

	category := ""
	if len(raw.Category) > 0 {
		category = raw.Category[0]
	}

	return core.Article{
		Title:       raw.Title,
		Description: raw.Description,
		Content:     raw.Content,
		URL:         raw.Link,
		PublishedAt: publishedAt,
		Source:      raw.SourceID,
		Category:    category,
		ImageURL:    raw.ImageURL,
	}, true
}
