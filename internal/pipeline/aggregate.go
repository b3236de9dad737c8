package pipeline

import (
	"fmt"

	"songcatalog/internal/logger"
	"songcatalog/internal/lyrics"
	"songcatalog/internal/song"
)

// LyricsSink persists the outcome of lyric resolution.
type LyricsSink interface {
	SaveLyrics(m lyrics.Match) error
	SaveErrors(songs []song.Song) error
}

// SongSink persists the outcome of title parsing.
type SongSink interface {
	SaveSongs(songs []song.Song) error
	SaveTitleErrors(raws []string) error
}

// Sink stores every pipeline artifact.
type Sink interface {
	SongSink
	LyricsSink
}

// Report summarizes an aggregated lyrics run.
type Report struct {
	Matched       int
	Unmatched     int
	WriteFailures int
	// ErrorsAt is where unmatched songs were written, when the sink says.
	ErrorsAt string
}

// HasErrors reports whether any song ended up in the error artifact.
func (r Report) HasErrors() bool {
	return r.Unmatched > 0
}

// Aggregate keeps the first match and the first error seen for each title,
// writes each kept match's lyrics and then the error list. A failing lyrics
// write is logged and counted; only a failing error list write is returned.
func Aggregate(sink LyricsSink, matches []lyrics.Match, errs []song.Song, log *logger.Logger) (Report, error) {
	var report Report

	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m.Song.Title] {
			continue
		}
		seen[m.Song.Title] = true

		if err := sink.SaveLyrics(m); err != nil {
			log.Warn("Failed to save lyrics for %q: %v", m.Song.Title, err)
			report.WriteFailures++
			continue
		}
		report.Matched++
	}

	written := make(map[string]bool, len(errs))
	var unique []song.Song
	for _, s := range errs {
		if written[s.Title] {
			continue
		}
		written[s.Title] = true
		unique = append(unique, s)
	}
	report.Unmatched = len(unique)

	if l, ok := sink.(interface{ ErrorsLocation() string }); ok {
		report.ErrorsAt = l.ErrorsLocation()
	}
	if err := sink.SaveErrors(unique); err != nil {
		return report, fmt.Errorf("failed to save lyrics errors: %w", err)
	}
	return report, nil
}
