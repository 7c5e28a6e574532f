// Package linkedin searches public LinkedIn posts through the RapidAPI
// "LinkedIn Data" API. Results are cached per keyword.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 20 * time.Second

var (
	// ErrNotConfigured is returned when no RapidAPI key was provided.
	ErrNotConfigured = errors.New("linkedin: search API is not configured")
	// ErrUnexpectedResponse means the API answered without success or data.
	ErrUnexpectedResponse = errors.New("linkedin: unexpected response from search API")
)

// Searcher is what the networking service needs from this package.
type Searcher interface {
	SearchPosts(ctx context.Context, keyword string) ([]json.RawMessage, error)
}

// Post is the subset of a search result item the application stores when
// the user bookmarks it.
type Post struct {
	Author struct {
		FullName string `json:"fullName"`
	} `json:"author"`
	Text     string `json:"text"`
	URL      string `json:"url"`
	Activity struct {
		LikeCount   int `json:"likeCount"`
		NumComments int `json:"numComments"`
	} `json:"socialActivityCountsInsight"`
}

type Options struct {
	APIKey   string
	Host     string
	CacheTTL time.Duration
	// BaseURL overrides "https://" + Host. Tests point it at httptest.
	BaseURL string
}

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	apiKey  string
	host    string
	baseURL string
	logger  *slog.Logger
}

var _ Searcher = (*Client)(nil)

func New(opts Options, logger *slog.Logger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + opts.Host
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Client{
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:   cache.New(ttl, 2*ttl),
		apiKey:  opts.APIKey,
		host:    opts.Host,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type searchRequest struct {
	Keyword              string   `json:"keyword"`
	SortBy               string   `json:"sortBy"`
	DatePosted           string   `json:"datePosted"`
	Page                 int      `json:"page"`
	ContentType          string   `json:"contentType"`
	FromMember           []string `json:"fromMember"`
	FromCompany          []string `json:"fromCompany"`
	MentionsMember       []string `json:"mentionsMember"`
	MentionsOrganization []string `json:"mentionsOrganization"`
	AuthorIndustry       []string `json:"authorIndustry"`
	AuthorCompany        []string `json:"authorCompany"`
	AuthorTitle          string   `json:"authorTitle"`
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Items []json.RawMessage `json:"items"`
	} `json:"data"`
}

// SearchPosts returns the newest posts matching keyword. The items are
// passed through untouched so the caller can hand them to the browser.
func (c *Client) SearchPosts(ctx context.Context, keyword string) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	keyword = strings.TrimSpace(keyword)
	if cached, ok := c.cache.Get(keyword); ok {
		return cached.([]json.RawMessage), nil
	}

	payload, err := json.Marshal(searchRequest{
		Keyword:              keyword,
		SortBy:               "date_posted",
		Page:                 1,
		FromMember:           []string{},
		FromCompany:          []string{},
		MentionsMember:       []string{},
		MentionsOrganization: []string{},
		AuthorIndustry:       []string{},
		AuthorCompany:        []string{},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search-posts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("linkedin: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin: performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("linkedin: reading response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil || !parsed.Success || parsed.Data == nil {
		c.logger.Error("unexpected linkedin response", "status", resp.StatusCode, "keyword", keyword,
			"body", truncate(string(body), 500))
		return nil, ErrUnexpectedResponse
	}

	items := parsed.Data.Items
	if items == nil {
		items = []json.RawMessage{}
	}
	c.cache.SetDefault(keyword, items)
	c.logger.Debug("linkedin search", "keyword", keyword, "results", len(items))
	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
