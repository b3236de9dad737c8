package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"songcatalog/internal/config"
	"songcatalog/internal/discography"
	"songcatalog/internal/feed"
	"songcatalog/internal/logger"
	"songcatalog/internal/lyrics"
	"songcatalog/internal/provider"
	"songcatalog/internal/sink"
	"songcatalog/internal/song"
)

const requestTimeout = 30 * time.Second

// Deps holds the long-lived components of a run, built once from the
// configuration and shared by every run of the process.
type Deps struct {
	Log        *logger.Logger
	Dispatcher *Dispatcher
	Sink       Sink
	Dir        *sink.Dir
	Catalog    *sink.Catalog // nil without catalog_path

	cache  *discography.Cache
	output sink.Multi
}

// Option adjusts Setup.
type Option func(*setupOptions)

type setupOptions struct {
	sources []discography.Source
	store   discography.Store
}

// WithSources replaces the configured lyric sources.
func WithSources(sources ...discography.Source) Option {
	return func(o *setupOptions) { o.sources = sources }
}

// WithStore replaces the on-disk discography cache.
func WithStore(store discography.Store) Option {
	return func(o *setupOptions) { o.store = store }
}

// Setup wires sources, cache, resolver, dispatcher and sinks from cfg.
func Setup(cfg config.Config, log *logger.Logger, opts ...Option) (*Deps, error) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.sources == nil {
		sources, err := provider.NewAll(cfg.LyricSources, &http.Client{Timeout: requestTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to create lyric sources: %w", err)
		}
		o.sources = sources
	}

	if o.store == nil {
		store, err := discography.NewBoltStore(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open discography cache: %w", err)
		}
		if n, err := store.Prune(time.Now().Add(-cfg.CacheStaleAfter)); err != nil {
			log.Warn("Failed to prune discography cache: %v", err)
		} else if n > 0 {
			log.Debug("Pruned %d stale discographies from %s", n, cfg.CachePath)
		}
		o.store = store
	}

	cache := discography.NewCache(o.store, o.sources, discography.WithStaleAfter(cfg.CacheStaleAfter))
	resolver := lyrics.NewResolver(cache, cfg.LyricSources, cfg.SimilarityThreshold, log)

	dir, err := sink.NewDir(cfg.OutputDir)
	if err != nil {
		cache.Close()
		return nil, err
	}
	deps := &Deps{
		Log:        log,
		Dispatcher: NewDispatcher(resolver, cfg.ParallelJobs, log),
		Dir:        dir,
		cache:      cache,
		output:     sink.Multi{dir},
	}

	if cfg.CatalogPath != "" {
		catalog, err := sink.NewCatalog(cfg.CatalogPath)
		if err != nil {
			cache.Close()
			return nil, err
		}
		deps.Catalog = catalog
		deps.output = append(deps.output, catalog)
	}
	deps.Sink = deps.output
	return deps, nil
}

// ErrorsLocation is where unmatched songs end up.
func (d *Deps) ErrorsLocation() string {
	return d.output.ErrorsLocation()
}

// StoredSongs returns the songs identified by an earlier run, from the
// catalog when asked, otherwise from the songs list in the output directory.
func (d *Deps) StoredSongs(fromCatalog bool) ([]song.Song, error) {
	if fromCatalog {
		if d.Catalog == nil {
			return nil, fmt.Errorf("no catalog_path configured")
		}
		return d.Catalog.Songs()
	}
	songs, err := song.ReadCSV(d.Dir.SongsPath())
	var skipped song.SkippedRows
	if errors.As(err, &skipped) {
		d.Log.Warn("Skipped %d invalid rows in %s", len(skipped), d.Dir.SongsPath())
		for _, e := range skipped {
			d.Log.Debug("%v", e)
		}
		return songs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read songs list: %w", err)
	}
	return songs, nil
}

func (d *Deps) Close() error {
	return errors.Join(d.output.Close(), d.cache.Close())
}

// FeedsFromConfig builds one feed per configured origin.
func FeedsFromConfig(cfg config.Config) []feed.Feed {
	client := &http.Client{Timeout: requestTimeout}

	var feeds []feed.Feed
	for _, path := range cfg.TitleFiles {
		feeds = append(feeds, feed.File{Path: path})
	}
	for _, p := range cfg.YouTubePlaylists {
		feeds = append(feeds, feed.YouTube{Playlist: p})
	}
	for _, u := range cfg.Charts {
		feeds = append(feeds, feed.Chart{URL: u, HTTPClient: client, UserAgent: provider.UserAgent})
	}
	for _, dir := range cfg.TagsDirs {
		feeds = append(feeds, feed.Tags{Dir: dir})
	}
	return feeds
}
