package describe

import (
	"context"
	"log/slog"

	"zxmeta/internal/logging"
)

// Chain queries sources in order.
type Chain struct {
	sources []Source
	memo    *Memo
	logger  *slog.Logger
}

// NewChain builds a chain. memo may be nil.
func NewChain(logger *slog.Logger, memo *Memo, sources ...Source) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Chain{sources: sources, memo: memo, logger: logging.NewComponentLogger(logger, "describe")}
}

// Sources returns the configured source names in query order.
func (c *Chain) Sources() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return names
}

// Describe fills have's empty fields from the sources and returns the result.
// Sources stop being queried once summary, description, and box art are set.
func (c *Chain) Describe(ctx context.Context, q Query, have Descriptions) Descriptions {
	if c == nil {
		return have
	}
	for _, src := range c.sources {
		if have.Summary != "" && have.Description != "" && have.BoxArt != "" {
			break
		}
		if ctx.Err() != nil {
			break
		}
		key := src.Key(q)
		if key == "" {
			continue
		}
		got, ok := c.lookup(ctx, src, key, q)
		if !ok {
			continue
		}
		have = fill(have, got)
	}
	return have
}

func (c *Chain) lookup(ctx context.Context, src Source, key string, q Query) (Descriptions, bool) {
	if c.memo != nil {
		got, hit, err := c.memo.Get(ctx, src.Name(), key)
		if err != nil {
			c.logger.Debug("description memo read failed", logging.String("source", src.Name()), logging.Error(err))
		} else if hit {
			return got, true
		}
	}

	got, err := src.Describe(ctx, q)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "secondary description lookup failed", "describe_failed",
			logging.String("source", src.Name()),
			logging.String("title", q.Title),
			logging.String(logging.FieldErrorHint, "check network access and credentials"),
			logging.String(logging.FieldImpact, "game keeps catalog text only"),
			logging.Error(err),
		)
		return Descriptions{}, false
	}
	c.logger.Debug("secondary description fetched",
		logging.String("source", src.Name()),
		logging.String("title", q.Title),
		logging.Bool("empty", got.Empty()),
	)
	if c.memo != nil {
		if err := c.memo.Put(ctx, src.Name(), key, got); err != nil {
			c.logger.Debug("description memo write failed", logging.String("source", src.Name()), logging.Error(err))
		}
	}
	return got, true
}

func fill(have, got Descriptions) Descriptions {
	if have.Summary == "" {
		have.Summary = got.Summary
	}
	if have.Description == "" {
		have.Description = got.Description
	}
	if have.BoxArt == "" {
		have.BoxArt = got.BoxArt
	}
	return have
}
