package pipeline

import (
	"context"
	"fmt"
	"time"

	"songcatalog/internal/feed"
	"songcatalog/internal/logger"
	"songcatalog/internal/song"
)

type Hooks struct {
	OnStart    func(total int)
	OnProgress func()
	OnWarning  func(msg string)
}

func (h Hooks) warn(log *logger.Logger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Warn("%s", msg)
	if h.OnWarning != nil {
		h.OnWarning(msg)
	}
}

// Identify collects raw titles from feeds, parses them into songs and
// persists both the songs and the titles that could not be parsed.
func Identify(ctx context.Context, log *logger.Logger, feeds []feed.Feed, sink SongSink) ([]song.Song, error) {
	log.Info("=== Collecting titles from %d feeds ===", len(feeds))
	raws, err := feed.Collect(ctx, feeds, log)
	if err != nil {
		return nil, fmt.Errorf("failed to collect titles: %w", err)
	}

	songs, bad := feed.Identify(raws, time.Now())
	log.Info("Identified %d songs from %d titles (%d unparsable)", len(songs), len(raws), len(bad))
	for _, b := range bad {
		log.Debug("Unparsable title: %q", b)
	}

	if err := sink.SaveSongs(songs); err != nil {
		return songs, fmt.Errorf("failed to save songs: %w", err)
	}
	if err := sink.SaveTitleErrors(bad); err != nil {
		return songs, fmt.Errorf("failed to save title errors: %w", err)
	}
	return songs, nil
}

// Lyrics resolves the lyrics of songs and aggregates the outcome into sink.
// A cancelled run writes nothing.
func Lyrics(ctx context.Context, log *logger.Logger, d *Dispatcher, sink LyricsSink, songs []song.Song, hooks Hooks) (Report, error) {
	log.Info("=== Resolving lyrics for %d songs ===", len(songs))
	if hooks.OnStart != nil {
		hooks.OnStart(len(songs))
	}

	run := *d
	run.OnProgress = func(done, total int) {
		log.Debug("Resolved %d/%d", done, total)
		if hooks.OnProgress != nil {
			hooks.OnProgress()
		}
	}
	matches, errs := run.RunAll(ctx, songs)
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report, err := Aggregate(sink, matches, errs, log)
	if err != nil {
		return report, err
	}
	if report.WriteFailures > 0 {
		hooks.warn(log, "%d lyric files could not be written", report.WriteFailures)
	}
	log.Info("Matched %d songs, %d without lyrics", report.Matched, report.Unmatched)
	return report, nil
}

// Run identifies songs from feeds and resolves their lyrics in one go.
func Run(ctx context.Context, deps *Deps, feeds []feed.Feed, hooks Hooks) (Report, error) {
	songs, err := Identify(ctx, deps.Log, feeds, deps.Sink)
	if err != nil {
		return Report{}, err
	}
	if len(songs) == 0 {
		hooks.warn(deps.Log, "no song titles could be parsed")
		return Report{}, nil
	}
	return Lyrics(ctx, deps.Log, deps.Dispatcher, deps.Sink, songs, hooks)
}
