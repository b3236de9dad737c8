package lyrics

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songcatalog/internal/discography"
	"songcatalog/internal/logger"
	"songcatalog/internal/song"
)

// fakeLookup serves canned discographies keyed by source then artist.
type fakeLookup struct {
	mu    sync.Mutex
	discs map[string]map[string]discography.Discography
	fail  map[string]bool // "source:artist" lookups that return an error
	calls map[string]int  // per source
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		discs: map[string]map[string]discography.Discography{},
		fail:  map[string]bool{},
		calls: map[string]int{},
	}
}

func (f *fakeLookup) add(source, artist string, tracks ...discography.Track) {
	if f.discs[source] == nil {
		f.discs[source] = map[string]discography.Discography{}
	}
	f.discs[source][artist] = discography.Discography{
		Artist: artist,
		Albums: []discography.Album{{Title: "Album", Tracks: tracks}},
	}
}

func (f *fakeLookup) Get(_ context.Context, artist, source string) (discography.Discography, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[source]++
	if f.fail[discography.Key(source, artist)] {
		return discography.Discography{}, errors.New("connection reset")
	}
	return f.discs[source][artist], nil
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, true)
}

var sources = []string{"lrclib", "azlyrics"}

func TestResolveExactMatchSkipsFallback(t *testing.T) {
	f := newFakeLookup()
	f.add("lrclib", "Queen", discography.Track{Title: "Bohemian Rhapsody", Lyrics: "Is this the real life?"})
	f.add("azlyrics", "Queen", discography.Track{Title: "Bohemian Rhapsody", Lyrics: "other"})

	r := NewResolver(f, sources, 0, quietLogger())
	m := r.Resolve(context.Background(), song.Song{Artists: []string{"Queen"}, Title: "Bohemian Rhapsody"})

	require.True(t, m.Found)
	assert.Equal(t, 1.0, m.Ratio)
	assert.Equal(t, "lrclib", m.Source)
	assert.Equal(t, "Is this the real life?", m.Lyrics())
	assert.Equal(t, 0, f.calls["azlyrics"], "fallback source should not be contacted")
}

func TestResolveFallsBackOnce(t *testing.T) {
	f := newFakeLookup()
	f.add("lrclib", "Queen", discography.Track{Title: "Radio Ga Ga", Lyrics: "radio"})
	f.add("azlyrics", "Queen", discography.Track{Title: "Under Pressure", Lyrics: "pressure"})

	r := NewResolver(f, sources, 0, quietLogger())
	s := song.Song{Artists: []string{"Queen", "David Bowie"}, Title: "Under Pressure"}
	m := r.Resolve(context.Background(), s)

	require.True(t, m.Found)
	assert.Equal(t, "azlyrics", m.Source)
	assert.Equal(t, "pressure", m.Lyrics())
	// one lookup per artist per source
	assert.Equal(t, 2, f.calls["lrclib"])
	assert.Equal(t, 2, f.calls["azlyrics"])
}

func TestResolveNoMatchAfterFailures(t *testing.T) {
	f := newFakeLookup()
	f.fail["lrclib:Queen"] = true
	f.fail["lrclib:David Bowie"] = true
	f.fail["azlyrics:Queen"] = true
	f.add("azlyrics", "David Bowie", discography.Track{Title: "Heroes", Lyrics: "I, I will be king"})

	r := NewResolver(f, sources, 0, quietLogger())
	s := song.Song{Artists: []string{"Queen", "David Bowie"}, Title: "Under Pressure", VideoID: "a01"}
	m := r.Resolve(context.Background(), s)

	assert.False(t, m.Found)
	assert.Equal(t, s, m.Song, "the original song is reported unchanged")
	assert.Empty(t, m.Lyrics())
	assert.Equal(t, 2, f.calls["lrclib"])
	assert.Equal(t, 2, f.calls["azlyrics"])
}

func TestResolveFirstMatchWins(t *testing.T) {
	f := newFakeLookup()
	f.add("lrclib", "Queen",
		discography.Track{Title: "Bohemian Rhapsody (Live)", Lyrics: ""},
		discography.Track{Title: "Bohemian Rhapsodyy", Lyrics: "first"},
		discography.Track{Title: "Bohemian Rhapsody", Lyrics: "exact"},
	)

	r := NewResolver(f, sources, 0, quietLogger())
	m := r.Resolve(context.Background(), song.Song{Artists: []string{"Queen"}, Title: "bohemian rhapsody"})

	require.True(t, m.Found)
	assert.Equal(t, "first", m.Lyrics(), "scan stops at the first track above the threshold")
	assert.Less(t, m.Ratio, 1.0)
}

func TestResolveSkipsTracksWithoutLyrics(t *testing.T) {
	f := newFakeLookup()
	f.add("lrclib", "Queen", discography.Track{Title: "Mustapha"})

	r := NewResolver(f, []string{"lrclib"}, 0, quietLogger())
	m := r.Resolve(context.Background(), song.Song{Artists: []string{"Queen"}, Title: "Mustapha"})
	assert.False(t, m.Found)
}

func TestResolveWithExplicitSources(t *testing.T) {
	f := newFakeLookup()
	f.add("azlyrics", "Queen", discography.Track{Title: "Innuendo", Lyrics: "while the sun hangs in the sky"})

	r := NewResolver(f, []string{"lrclib"}, 0, quietLogger())
	s := song.Song{Artists: []string{"Queen"}, Title: "Innuendo"}

	assert.False(t, r.Resolve(context.Background(), s).Found)
	m := r.ResolveWith(context.Background(), s, []string{"azlyrics"})
	assert.True(t, m.Found)
	assert.Equal(t, []string{"lrclib"}, r.Sources())
}

func TestResolveCancelled(t *testing.T) {
	f := newFakeLookup()
	f.add("lrclib", "Queen", discography.Track{Title: "Innuendo", Lyrics: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(f, sources, 0, quietLogger())
	m := r.Resolve(ctx, song.Song{Artists: []string{"Queen"}, Title: "Innuendo"})
	assert.False(t, m.Found)
	assert.Zero(t, f.calls["lrclib"])
}
