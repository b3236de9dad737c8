package discography

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultStaleAfter is how long a fetched discography stays usable.
const DefaultStaleAfter = 72 * time.Hour

// Entry is a cached discography and the time it was fetched.
type Entry struct {
	Discography Discography `json:"discography"`
	Created     time.Time   `json:"created"`
}

// Store persists cache entries by key.
type Store interface {
	// Load returns the entry for key; ok is false when there is none.
	Load(key string) (entry Entry, ok bool, err error)
	Save(key string, entry Entry) error
	Close() error
}

// Cache memoizes Source lookups with a staleness window. It is safe for
// concurrent use; concurrent misses on the same key share one fetch.
type Cache struct {
	store      Store
	sources    map[string]Source
	staleAfter time.Duration
	now        func() time.Time
	group      singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithStaleAfter sets the staleness window.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

// NewCache creates a cache over store for the given sources, keyed by Source.Name().
func NewCache(store Store, sources []Source, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		sources:    make(map[string]Source, len(sources)),
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, s := range sources {
		c.sources[s.Name()] = s
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key builds the store key for an (artist, source) pair.
func Key(source, artist string) string {
	return fmt.Sprintf("%s:%s", source, artist)
}

// Get returns the discography of artist from source, using the cached entry
// while it is live. Empty results are cached; fetch errors are not.
func (c *Cache) Get(ctx context.Context, artist, source string) (Discography, error) {
	src, ok := c.sources[source]
	if !ok {
		return Discography{}, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	key := Key(source, artist)
	if d, ok := c.lookup(key); ok {
		return d, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// another caller may have filled the entry while we waited
		if d, ok := c.lookup(key); ok {
			return d, nil
		}
		d, err := src.Discography(ctx, artist)
		if err != nil {
			return nil, fmt.Errorf("%s discography for %q: %w", source, artist, err)
		}
		if err := c.store.Save(key, Entry{Discography: d, Created: c.now()}); err != nil {
			return nil, fmt.Errorf("failed to cache %s: %w", key, err)
		}
		return d, nil
	})
	if err != nil {
		return Discography{}, err
	}
	return v.(Discography), nil
}

// lookup returns the stored discography when it is still before its deadline.
// Unreadable entries count as misses.
func (c *Cache) lookup(key string) (Discography, bool) {
	e, ok, err := c.store.Load(key)
	if err != nil || !ok {
		return Discography{}, false
	}
	if !c.now().Before(e.Created.Add(c.staleAfter)) {
		return Discography{}, false
	}
	return e.Discography, true
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}
