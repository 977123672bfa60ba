package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"zxmeta/internal/assets"
	"zxmeta/internal/config"
	"zxmeta/internal/describe"
	"zxmeta/internal/hashcache"
	"zxmeta/internal/services/fetch"
	"zxmeta/internal/services/igdb"
	"zxmeta/internal/services/wikipedia"
	"zxmeta/internal/services/zxinfo"
)

// runtimeDeps holds the collaborators shared by commands that touch remote
// services or persisted state.
type runtimeDeps struct {
	cache    *hashcache.Store
	memo     *describe.Memo
	lookup   *zxinfo.Client
	chain    *describe.Chain
	resolver *assets.Resolver
}

func (d *runtimeDeps) Close() error {
	if d == nil || d.memo == nil {
		return nil
	}
	return d.memo.Close()
}

// openStores opens the hash cache and description memo.
func openStores(cfg *config.Config, logger *slog.Logger) (*hashcache.Store, *describe.Memo, error) {
	store, err := hashcache.New(cfg.Paths.CacheDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open hash cache: %w", err)
	}
	memo, err := describe.OpenMemo(cfg.Paths.DescriptionDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open description memo: %w", err)
	}
	return store, memo, nil
}

// buildRuntime wires the remote clients, stores and asset resolver for a
// run writing outputPath.
func buildRuntime(cfg *config.Config, outputPath string, logger *slog.Logger) (*runtimeDeps, error) {
	store, memo, err := openStores(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := &runtimeDeps{cache: store, memo: memo}

	timeout := cfg.LookupTimeout()
	httpClient := &http.Client{Timeout: timeout}
	ua := cfg.Lookup.UserAgent

	deps.lookup, err = zxinfo.New(cfg.Lookup.ZXInfoBaseURL, zxinfo.WithHTTPClient(httpClient), zxinfo.WithUserAgent(ua))
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("zxinfo client: %w", err)
	}

	wiki, err := wikipedia.New(cfg.Lookup.WikipediaBaseURL, wikipedia.WithHTTPClient(httpClient), wikipedia.WithUserAgent(ua))
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("wikipedia client: %w", err)
	}
	sources := []describe.Source{describe.WikipediaSource{Client: wiki}}
	if cfg.IGDBEnabled() {
		client, err := igdb.New(cfg.Lookup.IGDBBaseURL, cfg.Lookup.TwitchTokenURL,
			cfg.Lookup.IGDBClientID, cfg.Lookup.IGDBClientSecret, igdb.WithHTTPClient(httpClient))
		if err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("igdb client: %w", err)
		}
		sources = append(sources, describe.IGDBSource{Client: client})
	}
	deps.chain = describe.NewChain(logger, memo, sources...)

	fetcher := fetch.New(fetch.WithUserAgent(ua))
	deps.resolver = assets.NewResolver(cfg.AssetsRoot(outputPath), fetcher, timeout, logger)
	return deps, nil
}
