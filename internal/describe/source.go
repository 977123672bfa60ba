package describe

import (
	"context"
	"errors"
	"strings"

	"zxmeta/internal/services"
	"zxmeta/internal/services/igdb"
	"zxmeta/internal/services/wikipedia"
	"zxmeta/internal/textutil"
)

// Descriptions is what a source can contribute to a record.
type Descriptions struct {
	Summary     string
	Description string
	BoxArt      string
}

// Empty reports whether no field is set.
func (d Descriptions) Empty() bool {
	return d.Summary == "" && d.Description == "" && d.BoxArt == ""
}

// Query identifies the game being described.
type Query struct {
	Title string
	Links []string
}

// Source is one secondary provider.
type Source interface {
	Name() string
	// Key returns the memo key for q, or "" when the source has nothing to ask.
	Key(q Query) string
	Describe(ctx context.Context, q Query) (Descriptions, error)
}

// WikipediaSource describes games that carry a Wikipedia related link.
type WikipediaSource struct {
	Client *wikipedia.Client
}

func (WikipediaSource) Name() string { return "wikipedia" }

func (WikipediaSource) Key(q Query) string {
	for _, link := range q.Links {
		if title := wikipedia.TitleFromURL(link); title != "" {
			return title
		}
	}
	return ""
}

func (s WikipediaSource) Describe(ctx context.Context, q Query) (Descriptions, error) {
	title := s.Key(q)
	if title == "" {
		return Descriptions{}, nil
	}
	article, err := s.Client.Article(ctx, title)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return Descriptions{}, nil
		}
		return Descriptions{}, err
	}
	return Descriptions{Summary: article.Summary, Description: article.Intro, BoxArt: article.BoxArt}, nil
}

// igdbMatchThreshold is the minimum title similarity for a search result to
// be trusted.
const igdbMatchThreshold = 0.6

// IGDBSource searches IGDB by title and uses the result whose name is closest.
type IGDBSource struct {
	Client *igdb.Client
}

func (IGDBSource) Name() string { return "igdb" }

func (IGDBSource) Key(q Query) string {
	return strings.ToLower(strings.TrimSpace(q.Title))
}

func (s IGDBSource) Describe(ctx context.Context, q Query) (Descriptions, error) {
	games, err := s.Client.Search(ctx, q.Title)
	if err != nil {
		return Descriptions{}, err
	}
	names := make([]string, len(games))
	for i, g := range games {
		names[i] = g.Name
	}
	idx, _ := textutil.BestMatch(q.Title, names, igdbMatchThreshold)
	if idx < 0 {
		return Descriptions{}, nil
	}
	game := games[idx]
	out := Descriptions{Summary: strings.TrimSpace(game.Summary), Description: strings.TrimSpace(game.Storyline)}
	if out.Description == "" {
		out.Description = out.Summary
	}
	return out, nil
}
