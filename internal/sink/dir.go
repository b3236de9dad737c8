// Package sink persists songs, lyrics and error listings.
package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"songcatalog/internal/lyrics"
	"songcatalog/internal/song"
	"songcatalog/pkg/utils"
)

const (
	SongsFile       = "songs.csv"
	LyricsDir       = "songs"
	LyricErrorsFile = "lyrics-errors.txt"
	TitleErrorsFile = "title-errors.txt"
)

// Dir writes every artifact as plain files under one output directory.
type Dir struct {
	root string
	mu   sync.Mutex
}

func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(filepath.Join(root, LyricsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string { return d.root }

// SongsPath is the songs list written by SaveSongs.
func (d *Dir) SongsPath() string { return filepath.Join(d.root, SongsFile) }

// ErrorsLocation is the unmatched songs listing written by SaveErrors.
func (d *Dir) ErrorsLocation() string { return filepath.Join(d.root, LyricErrorsFile) }

// TitleErrorsPath is the unparsable titles listing.
func (d *Dir) TitleErrorsPath() string { return filepath.Join(d.root, TitleErrorsFile) }

// LyricsPath returns the lyrics file of a song title, or "" when the title
// has no characters usable in a file name. The slug is suffixed with an id
// derived from the exact title, so "Hello" and "hello!" get separate files.
func (d *Dir) LyricsPath(title string) string {
	name := slug.Make(title)
	if name == "" {
		return ""
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(title)).String()[:8]
	return filepath.Join(d.root, LyricsDir, name+"-"+id+".csv")
}

// SaveSongs appends songs to the songs list.
func (d *Dir) SaveSongs(songs []song.Song) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(songs) == 0 {
		return nil
	}
	return song.WriteCSV(d.SongsPath(), songs)
}

// SaveTitleErrors replaces the unparsable titles listing, one title per line.
func (d *Dir) SaveTitleErrors(raws []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	for _, r := range raws {
		b.WriteString(strings.ReplaceAll(r, "\n", " "))
		b.WriteByte('\n')
	}
	return utils.WriteFileAtomic(d.TitleErrorsPath(), []byte(b.String()))
}

// SaveLyrics writes the matched lyrics as stanza;verse;line rows.
func (d *Dir) SaveLyrics(m lyrics.Match) error {
	path := d.LyricsPath(m.Song.Title)
	if path == "" {
		return fmt.Errorf("title %q has no usable file name", m.Song.Title)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	for _, v := range lyrics.Verses(m.Lyrics()) {
		if err := w.Write([]string{strconv.Itoa(v.Stanza), strconv.Itoa(v.Number), v.Line}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode lyrics for %q: %w", m.Song.Title, err)
	}
	return utils.WriteFileAtomic(path, buf.Bytes())
}

// SaveErrors replaces the unmatched songs listing with songs, as song CSV rows.
func (d *Dir) SaveErrors(songs []song.Song) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	if err := song.Encode(&buf, songs, false); err != nil {
		return fmt.Errorf("failed to encode lyrics errors: %w", err)
	}
	return utils.WriteFileAtomic(d.ErrorsLocation(), buf.Bytes())
}
