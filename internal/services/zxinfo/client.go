package zxinfo

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

const defaultUserAgent = "zxspectrum-frontend-meta-generator"

// FileMatch is the filecheck response for a content hash.
type FileMatch struct {
	EntryID string `json:"entry_id"`
	Title   string `json:"title"`
	File    struct {
		Filename string `json:"filename"`
		MD5      string `json:"md5"`
	} `json:"file"`
}

// Score is the community rating on a 0-10 scale.
type Score struct {
	Score float64 `json:"score"`
	Votes int     `json:"votes"`
}

// Author is one credited person or group.
type Author struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Publisher is one publishing label. Seq 1 is the original publisher.
type Publisher struct {
	Name         string `json:"name"`
	PublisherSeq int    `json:"publisherSeq"`
}

// Screen is a loading or in-game screen hosted under the media root.
type Screen struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Format string `json:"format"`
}

// Download is an additional file such as an inlay scan.
type Download struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	Format string `json:"format"`
}

// RelatedLink points at another site describing the game.
type RelatedLink struct {
	SiteName string `json:"siteName"`
	URL      string `json:"url"`
}

// Game is the compact catalog entry.
type Game struct {
	ID                    string        `json:"-"`
	Title                 string        `json:"title"`
	OriginalYearOfRelease int           `json:"originalYearOfRelease"`
	Score                 *Score        `json:"score"`
	Genre                 string        `json:"genre"`
	NumberOfPlayers       string        `json:"numberOfPlayers"`
	Authors               []Author      `json:"authors"`
	Publishers            []Publisher   `json:"publishers"`
	Screens               []Screen      `json:"screens"`
	AdditionalDownloads   []Download    `json:"additionalDownloads"`
	RelatedLinks          []RelatedLink `json:"relatedLinks"`
}

type gameResponse struct {
	ID     string `json:"_id"`
	Found  *bool  `json:"found"`
	Source *Game  `json:"_source"`
}

// Lookup resolves a content hash to a catalog entry.
type Lookup interface {
	LookupByHash(ctx context.Context, hash string) (*Game, error)
}

// Client provides access to the ZXInfo v3 API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Lookup = (*Client)(nil)

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

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a ZXInfo client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("zxinfo base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// LookupByHash identifies a game by the MD5 of its payload.
func (c *Client) LookupByHash(ctx context.Context, hash string) (*Game, error) {
	match, err := c.FileCheck(ctx, hash)
	if err != nil {
		return nil, err
	}
	return c.GameByID(ctx, match.EntryID)
}

// FileCheck maps a content hash to a catalog entry ID.
func (c *Client) FileCheck(ctx context.Context, hash string) (*FileMatch, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return nil, errors.New("hash must not be empty")
	}
	var match FileMatch
	if err := c.getJSON(ctx, "/filecheck/"+url.PathEscape(hash), nil, "filecheck", &match); err != nil {
		return nil, err
	}
	if strings.TrimSpace(match.EntryID) == "" {
		return nil, services.Wrap(services.ErrNotFound, "lookup", "filecheck", "no entry for "+hash, nil)
	}
	return &match, nil
}

// GameByID fetches the compact catalog entry.
func (c *Client) GameByID(ctx context.Context, id string) (*Game, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("entry id must not be empty")
	}
	params := url.Values{}
	params.Set("mode", "compact")
	var payload gameResponse
	if err := c.getJSON(ctx, "/games/"+url.PathEscape(id), params, "game", &payload); err != nil {
		return nil, err
	}
	if payload.Source == nil || (payload.Found != nil && !*payload.Found) {
		return nil, services.Wrap(services.ErrNotFound, "lookup", "game", "entry "+id+" not found", nil)
	}
	game := payload.Source
	game.ID = id
	if payload.ID != "" {
		game.ID = payload.ID
	}
	return game, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, op string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse zxinfo url: %w", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(transportMarker(ctx, err), "lookup", op, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "lookup", op, fmt.Sprintf("zxinfo %s returned 404 (latency=%v)", op, latency), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "lookup", op, fmt.Sprintf("zxinfo %s returned %d (latency=%v)", op, resp.StatusCode, latency), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "lookup", op, "decode zxinfo response", err)
	}
	return nil
}

func transportMarker(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.ErrTimeout
	}
	return services.ErrTransient
}
