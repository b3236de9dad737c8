package discography

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	calls atomic.Int32
	disc  Discography
	err   error
	delay time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Discography(ctx context.Context, artist string) (Discography, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Discography{}, f.err
	}
	d := f.disc
	d.Artist = artist
	return d, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func sampleDiscography() Discography {
	return Discography{Albums: []Album{{
		Title:  "A Night at the Opera",
		Tracks: []Track{{Title: "Bohemian Rhapsody", Lyrics: "Is this the real life?"}},
	}}}
}

func TestCacheHitWithinWindow(t *testing.T) {
	src := &fakeSource{name: "lrclib", disc: sampleDiscography()}
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(NewMemoryStore(), []Source{src}, WithClock(clock.Now))

	d1, err := c.Get(context.Background(), "Queen", "lrclib")
	require.NoError(t, err)
	clock.Advance(71 * time.Hour)
	d2, err := c.Get(context.Background(), "Queen", "lrclib")
	require.NoError(t, err)

	require.Equal(t, int32(1), src.calls.Load(), "second lookup should be served from cache")
	require.Equal(t, d1, d2)
	require.Equal(t, "Queen", d2.Artist)
}

func TestCacheRefetchesStaleEntry(t *testing.T) {
	src := &fakeSource{name: "lrclib", disc: sampleDiscography()}
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(NewMemoryStore(), []Source{src}, WithClock(clock.Now), WithStaleAfter(time.Hour))

	_, err := c.Get(context.Background(), "Queen", "lrclib")
	require.NoError(t, err)

	// the deadline itself is already stale
	clock.Advance(time.Hour)
	_, err = c.Get(context.Background(), "Queen", "lrclib")
	require.NoError(t, err)
	require.Equal(t, int32(2), src.calls.Load())
}

func TestCacheKeysPerSource(t *testing.T) {
	a := &fakeSource{name: "lrclib", disc: sampleDiscography()}
	b := &fakeSource{name: "azlyrics", disc: sampleDiscography()}
	c := NewCache(NewMemoryStore(), []Source{a, b})

	for _, src := range []string{"lrclib", "azlyrics", "lrclib", "azlyrics"} {
		_, err := c.Get(context.Background(), "Queen", src)
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), a.calls.Load())
	require.Equal(t, int32(1), b.calls.Load())
}

func TestCacheStoresEmptyResult(t *testing.T) {
	src := &fakeSource{name: "lrclib"}
	c := NewCache(NewMemoryStore(), []Source{src})

	for i := 0; i < 3; i++ {
		d, err := c.Get(context.Background(), "Nobody", "lrclib")
		require.NoError(t, err)
		require.True(t, d.Empty())
	}
	require.Equal(t, int32(1), src.calls.Load(), "empty discography should be cached")
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	src := &fakeSource{name: "lrclib", err: errors.New("connection refused")}
	c := NewCache(NewMemoryStore(), []Source{src})

	_, err := c.Get(context.Background(), "Queen", "lrclib")
	require.Error(t, err)
	_, err = c.Get(context.Background(), "Queen", "lrclib")
	require.Error(t, err)
	require.Equal(t, int32(2), src.calls.Load())
}

func TestCacheUnknownSource(t *testing.T) {
	c := NewCache(NewMemoryStore(), nil)
	_, err := c.Get(context.Background(), "Queen", "genius")
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestCacheConcurrentMisses(t *testing.T) {
	src := &fakeSource{name: "lrclib", disc: sampleDiscography(), delay: 20 * time.Millisecond}
	c := NewCache(NewMemoryStore(), []Source{src})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.Get(context.Background(), "Queen", "lrclib")
			assert.NoError(t, err)
			assert.False(t, d.Empty())
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), src.calls.Load())
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "discographies.db")
	src := &fakeSource{name: "lrclib", disc: sampleDiscography()}

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	_, err = NewCache(store, []Source{src}).Get(context.Background(), "Queen", "lrclib")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewBoltStore(path)
	require.NoError(t, err)
	defer store.Close()
	d, err := NewCache(store, []Source{src}).Get(context.Background(), "Queen", "lrclib")
	require.NoError(t, err)
	require.Equal(t, int32(1), src.calls.Load(), "reopened cache should not refetch")
	require.Equal(t, "Bohemian Rhapsody", d.Albums[0].Tracks[0].Title)
}
