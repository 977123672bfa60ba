package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"zxmeta/internal/services"
)

// Platform is an IGDB platform row.
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Game is an IGDB game row limited to the narrative fields.
type Game struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	Storyline string `json:"storyline"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Client queries the IGDB v4 API.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	platforms []int64
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

// New creates an IGDB client. Both credentials are required.
func New(baseURL, tokenURL, clientID, clientSecret string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("igdb client id and secret required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	tokenURL = strings.TrimSpace(tokenURL)
	if baseURL == "" || tokenURL == "" {
		return nil, errors.New("igdb base url and token url required")
	}
	client := &Client{
		baseURL:      baseURL,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search returns games on the ZX Spectrum platforms matching title.
func (c *Client) Search(ctx context.Context, title string) ([]Game, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	platforms, err := c.Platforms(ctx)
	if err != nil {
		return nil, err
	}
	var body strings.Builder
	body.WriteString("fields name, storyline, summary;")
	if len(platforms) > 0 {
		ids := make([]string, len(platforms))
		for i, id := range platforms {
			ids[i] = strconv.FormatInt(id, 10)
		}
		body.WriteString(" where platforms = (" + strings.Join(ids, ",") + ");")
	}
	body.WriteString(" search " + strconv.Quote(title) + ";")

	var games []Game
	if err := c.post(ctx, "/games", body.String(), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Platforms returns the IDs of the ZX Spectrum platforms, querying once.
func (c *Client) Platforms(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	cached := c.platforms
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var rows []Platform
	if err := c.post(ctx, "/platforms", `fields id, name; where name ~ *"spectrum"*;`, &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	c.mu.Lock()
	c.platforms = ids
	c.mu.Unlock()
	return ids, nil
}

// Token returns a valid access token, requesting a new one when needed.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	endpoint, err := url.Parse(c.tokenURL)
	if err != nil {
		return "", fmt.Errorf("parse token url: %w", err)
	}
	params := endpoint.Query()
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("grant_type", "client_credentials")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var payload tokenResponse
	if err := c.do(req, "token", &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, "describe", "igdb token", "empty access token", nil)
	}
	c.token = payload.AccessToken
	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= time.Minute {
		ttl = time.Hour
	}
	c.expiresAt = c.now().Add(ttl - time.Minute)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, path, query string, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(query))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	err = c.do(req, strings.TrimPrefix(path, "/"), out)
	if errors.Is(err, errUnauthorized) {
		c.resetToken()
	}
	return err
}

var errUnauthorized = errors.New("unauthorized")

func (c *Client) do(req *http.Request, op string, out any) error {
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "describe", "igdb "+op, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "describe", "igdb "+op, fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), errUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "describe", "igdb "+op, fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode igdb response: %w", err)
	}
	return nil
}
