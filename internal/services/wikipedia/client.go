package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zxmeta/internal/services"
)

// Summary is the REST page summary payload.
type Summary struct {
	Title         string `json:"title"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	Extract       string `json:"extract"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

// Article is an accepted video game article.
type Article struct {
	Title   string
	Summary string
	Intro   string
	BoxArt  string
}

// Client queries the Wikipedia REST and action APIs.
type Client struct {
	baseURL    string
	actionURL  string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithActionURL overrides the action API endpoint used for intro extracts.
func WithActionURL(actionURL string) Option {
	return func(c *Client) {
		if actionURL = strings.TrimSpace(actionURL); actionURL != "" {
			c.actionURL = actionURL
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a Wikipedia client for the REST base URL, for example
// https://en.wikipedia.org/api/rest_v1. The action API defaults to /w/api.php
// on the same host.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("wikipedia base url required")
	}
	client := &Client{
		baseURL:    baseURL,
		actionURL:  strings.TrimSuffix(baseURL, "/api/rest_v1") + "/w/api.php",
		userAgent:  "zxspectrum-frontend-meta-generator",
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// TitleFromURL returns the page title named by the last path segment of a
// Wikipedia article URL. Non-Wikipedia URLs yield an empty string.
func TitleFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Hostname()), "wikipedia.org") {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	title := segments[len(segments)-1]
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}
	return strings.TrimSpace(title)
}

// IsVideoGame reports whether the summary describes a video game and is not
// a disambiguation page.
func (s *Summary) IsVideoGame() bool {
	if s == nil {
		return false
	}
	if s.Type == "disambiguation" {
		return false
	}
	head := s.Extract
	if len(head) > 50 {
		head = head[:50]
	}
	if strings.Contains(head, "may refer to") {
		return false
	}
	return strings.Contains(strings.ToLower(s.Description), "video game")
}

// Article loads the page and returns it when it is a video game article.
// Other pages return ErrNotFound.
func (c *Client) Article(ctx context.Context, title string) (*Article, error) {
	summary, err := c.PageSummary(ctx, title)
	if err != nil {
		return nil, err
	}
	if !summary.IsVideoGame() {
		return nil, services.Wrap(services.ErrNotFound, "describe", "wikipedia", title+" is not a video game article", nil)
	}
	intro, err := c.Intro(ctx, title)
	if err != nil {
		return nil, err
	}
	article := &Article{
		Title:   summary.Title,
		Summary: strings.TrimSpace(summary.Extract),
		Intro:   intro,
	}
	if summary.OriginalImage != nil {
		article.BoxArt = summary.OriginalImage.Source
	}
	return article, nil
}

// PageSummary fetches the REST summary for title.
func (c *Client) PageSummary(ctx context.Context, title string) (*Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	endpoint := c.baseURL + "/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	var payload Summary
	if err := c.getJSON(ctx, endpoint, "summary", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type extractResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Missing bool   `json:"missing"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Intro fetches the plain-text lead section for title.
func (c *Client) Intro(ctx context.Context, title string) (string, error) {
	endpoint, err := url.Parse(c.actionURL)
	if err != nil {
		return "", fmt.Errorf("parse wikipedia url: %w", err)
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("titles", title)
	endpoint.RawQuery = params.Encode()

	var payload extractResponse
	if err := c.getJSON(ctx, endpoint.String(), "intro", &payload); err != nil {
		return "", err
	}
	for _, page := range payload.Query.Pages {
		if !page.Missing {
			return strings.TrimSpace(page.Extract), nil
		}
	}
	return "", nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "describe", "wikipedia "+op, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "describe", "wikipedia "+op, fmt.Sprintf("returned 404 (latency=%v)", latency), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "describe", "wikipedia "+op, fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode wikipedia response: %w", err)
	}
	return nil
}
