// Package discography models an artist's albums and tracks as reported by a
// lyric source, and caches them per (artist, source).
package discography

import (
	"context"
	"errors"
)

// ErrUnknownSource is returned for a source identifier with no registered Source.
var ErrUnknownSource = errors.New("unknown lyric source")

// Track is one song of an album. Lyrics is empty when the source has none.
type Track struct {
	Title  string `json:"title"`
	Lyrics string `json:"lyrics,omitempty"`
}

// Album groups tracks under the album title the source reports.
type Album struct {
	Title  string  `json:"title"`
	Tracks []Track `json:"tracks"`
}

// Discography is everything one source knows about an artist.
type Discography struct {
	Artist string  `json:"artist"`
	Albums []Album `json:"albums"`
}

// Empty reports whether the discography carries no tracks at all.
func (d Discography) Empty() bool {
	for _, a := range d.Albums {
		if len(a.Tracks) > 0 {
			return false
		}
	}
	return true
}

// TrackCount returns the number of tracks across all albums.
func (d Discography) TrackCount() int {
	n := 0
	for _, a := range d.Albums {
		n += len(a.Tracks)
	}
	return n
}

// Source fetches discographies from one external lyric provider.
type Source interface {
	Name() string
	Discography(ctx context.Context, artist string) (Discography, error)
}
