// Package song holds the catalog record shared by every pipeline stage
// and its CSV representation.
package song

import (
	"strings"
	"time"
)

// Song is one catalog entry. Title is its identity for deduplication:
// two different songs that share a title collapse into one.
type Song struct {
	Artists  []string
	Title    string
	Gender   string        // genre tag, when the source provides one
	Length   time.Duration // zero when unknown
	Created  time.Time
	Provider string // feed that produced the song, e.g. "youtube"
	VideoID  string
}

// ArtistLine joins the artists the way they are written in CSV rows and logs.
func (s Song) ArtistLine() string {
	return strings.Join(s.Artists, ", ")
}

func (s Song) String() string {
	if len(s.Artists) == 0 {
		return s.Title
	}
	return s.Title + " by " + s.ArtistLine()
}
