// Package lyrics finds the lyric text of a song by scanning its artists'
// discographies across a prioritized list of sources.
package lyrics

import (
	"context"
	"strings"

	"songcatalog/internal/discography"
	"songcatalog/internal/logger"
	"songcatalog/internal/song"
)

// Lookup returns an artist's discography from one source. *discography.Cache
// satisfies it.
type Lookup interface {
	Get(ctx context.Context, artist, source string) (discography.Discography, error)
}

// Match is the outcome of resolving one song. When Found is false only Song is set.
type Match struct {
	Song   song.Song
	Found  bool
	Source string
	Album  string
	Track  discography.Track
	Ratio  float64
}

// Lyrics returns the matched lyric text, or "" for a miss.
func (m Match) Lyrics() string {
	if !m.Found {
		return ""
	}
	return m.Track.Lyrics
}

// Resolver matches songs against discographies.
type Resolver struct {
	lookup    Lookup
	sources   []string
	threshold float64
	logger    *logger.Logger
}

// NewResolver creates a Resolver trying sources in the given order.
// If threshold is 0, the default (0.8) is used.
func NewResolver(lookup Lookup, sources []string, threshold float64, log *logger.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{
		lookup:    lookup,
		sources:   sources,
		threshold: threshold,
		logger:    log,
	}
}

// Sources returns the configured priority list.
func (r *Resolver) Sources() []string {
	return r.sources
}

// Resolve uses the configured source priority list.
func (r *Resolver) Resolve(ctx context.Context, s song.Song) Match {
	return r.ResolveWith(ctx, s, r.sources)
}

// ResolveWith tries each source in order and returns the first track whose
// title is similar enough to the song's. Lookup errors only remove that
// artist from the current source; the song itself never fails with an error.
func (r *Resolver) ResolveWith(ctx context.Context, s song.Song, sources []string) Match {
	want := strings.ToLower(s.Title)

	for i, source := range sources {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			r.logger.Debug("Falling back to %s for %q", source, s.Title)
		}

		for _, disc := range r.discographies(ctx, s, source) {
			for _, album := range disc.Albums {
				for _, track := range album.Tracks {
					if track.Lyrics == "" {
						continue
					}
					ratio := Similarity(strings.ToLower(track.Title), want)
					if ratio > r.threshold {
						r.logger.Debug("%s: %q matched %q (%.2f)", source, s.Title, track.Title, ratio)
						return Match{
							Song:   s,
							Found:  true,
							Source: source,
							Album:  album.Title,
							Track:  track,
							Ratio:  ratio,
						}
					}
				}
			}
		}
	}

	r.logger.Debug("Cannot find the song %q from %s", s.Title, s.ArtistLine())
	return Match{Song: s}
}

func (r *Resolver) discographies(ctx context.Context, s song.Song, source string) []discography.Discography {
	var discs []discography.Discography
	for _, artist := range s.Artists {
		d, err := r.lookup.Get(ctx, artist, source)
		if err != nil {
			r.logger.Debug("%s: lookup for %q failed: %v", source, artist, err)
			continue
		}
		if !d.Empty() {
			discs = append(discs, d)
		}
	}
	return discs
}
