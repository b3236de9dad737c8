// Package feed collects raw song titles from playlists, chart pages, audio
// tags and text files, and turns them into songs.
package feed

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/arunsworld/nursery"

	"songcatalog/internal/logger"
	"songcatalog/internal/song"
	"songcatalog/internal/title"
)

// RawTitle is one entry as a feed reports it: either free-form Text or an
// Artist/Title pair that was already split upstream.
type RawTitle struct {
	Text     string
	Artist   string
	Title    string
	Featured []string // credits cut from the title, appended to the artists
	Gender   string
	Provider string
	VideoID  string
	Length   time.Duration
}

// String returns the entry as it would be written to the title error list.
func (r RawTitle) String() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Artist + " - " + r.Title
}

// Feed produces raw titles from one origin.
type Feed interface {
	Name() string
	Titles(ctx context.Context) ([]RawTitle, error)
}

// Collect drains every feed concurrently. A failing feed is logged and
// skipped; Collect errors only when all of them fail. Titles keep feed order.
func Collect(ctx context.Context, feeds []Feed, log *logger.Logger) ([]RawTitle, error) {
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	results := make([][]RawTitle, len(feeds))
	errs := make([]error, len(feeds))

	jobs := make([]nursery.ConcurrentJob, len(feeds))
	for i, f := range feeds {
		jobs[i] = func(ctx context.Context, _ chan error) {
			results[i], errs[i] = f.Titles(ctx)
		}
	}
	if err := nursery.RunConcurrentlyWithContext(ctx, jobs...); err != nil {
		return nil, err
	}

	var all []RawTitle
	failed := 0
	for i, f := range feeds {
		if errs[i] != nil {
			log.Warn("Feed %s failed: %v", f.Name(), errs[i])
			failed++
			continue
		}
		log.Debug("Feed %s returned %d titles", f.Name(), len(results[i]))
		all = append(all, results[i]...)
	}
	if failed == len(feeds) {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}
	return all, nil
}

// Identify parses raw titles into songs stamped with now. Entries that fit
// neither title grammar are returned as raw strings.
func Identify(raws []RawTitle, now time.Time) ([]song.Song, []string) {
	var songs []song.Song
	var failed []string

	for _, r := range raws {
		p, err := parse(r)
		if err != nil {
			failed = append(failed, r.String())
			continue
		}
		songs = append(songs, song.Song{
			Artists:  withFeatured(p.Artists, r.Featured),
			Title:    p.Title,
			Gender:   r.Gender,
			Length:   r.Length,
			Created:  now,
			Provider: r.Provider,
			VideoID:  r.VideoID,
		})
	}
	return songs, failed
}

func parse(r RawTitle) (title.Parsed, error) {
	if r.Text == "" {
		return title.FromParts(r.Artist, r.Title)
	}
	return title.Parse(r.Text)
}

func withFeatured(artists, featured []string) []string {
	for _, f := range featured {
		if !slices.Contains(artists, f) {
			artists = append(artists, f)
		}
	}
	return artists
}
