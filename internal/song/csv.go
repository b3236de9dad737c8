package song

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Header is the first row of a songs CSV file.
var Header = []string{"title", "artists", "created", "length", "gender", "provider", "video_id"}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// Record renders the song as a CSV row matching Header.
func (s Song) Record() []string {
	var created, length string
	if !s.Created.IsZero() {
		created = s.Created.UTC().Format(time.RFC3339)
	}
	if s.Length > 0 {
		length = strconv.Itoa(int(s.Length / time.Second))
	}
	return []string{s.Title, s.ArtistLine(), created, length, s.Gender, s.Provider, s.VideoID}
}

// FromRecord parses a CSV row written by Record. Missing trailing columns are allowed.
func FromRecord(rec []string) (Song, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	s := Song{
		Title:    field(0),
		Gender:   field(4),
		Provider: field(5),
		VideoID:  field(6),
	}
	for _, a := range strings.Split(field(1), ",") {
		if a = strings.TrimSpace(a); a != "" {
			s.Artists = append(s.Artists, a)
		}
	}
	if s.Title == "" {
		return Song{}, errors.New("empty title")
	}
	if len(s.Artists) == 0 {
		return Song{}, fmt.Errorf("song %q has no artists", s.Title)
	}

	if v := field(2); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Song{}, fmt.Errorf("invalid created timestamp %q: %w", v, err)
		}
		s.Created = t
	}
	if v := field(3); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Song{}, fmt.Errorf("invalid length %q: %w", v, err)
		}
		s.Length = time.Duration(secs) * time.Second
	}
	return s, nil
}

// Encode writes songs as CSV rows to w, optionally preceded by the header.
func Encode(w io.Writer, songs []Song, header bool) error {
	cw := newWriter(w)
	if header {
		if err := cw.Write(Header); err != nil {
			return err
		}
	}
	for _, s := range songs {
		if err := cw.Write(s.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SkippedRows lists the rows Decode dropped because they held no valid song.
type SkippedRows []error

func (e SkippedRows) Error() string {
	return fmt.Sprintf("%d rows skipped: %v", len(e), errors.Join(e...))
}

// Decode reads every song row from r, skipping the header when present.
// Rows that are not valid songs are dropped; when any were, the songs read
// are returned together with a SkippedRows error. A malformed CSV stream
// aborts the read.
func Decode(r io.Reader) ([]Song, error) {
	cr := newReader(r)
	var songs []Song
	var skipped SkippedRows
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && rec[0] == Header[0] {
			continue
		}
		s, err := FromRecord(rec)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		songs = append(songs, s)
	}
	if len(skipped) > 0 {
		return songs, skipped
	}
	return songs, nil
}

// ReadCSV loads a songs file produced by WriteCSV. Like Decode, it returns
// the valid songs alongside a SkippedRows error.
func ReadCSV(path string) ([]Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open songs file: %w", err)
	}
	defer f.Close()

	songs, err := Decode(f)
	if err != nil {
		return songs, fmt.Errorf("songs file %s: %w", path, err)
	}
	return songs, nil
}

// WriteCSV appends songs to path, writing the header only when the file is new.
func WriteCSV(path string, songs []Song) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open songs file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, songs, isNew); err != nil {
		return fmt.Errorf("failed to write songs file %s: %w", path, err)
	}
	return f.Close()
}
