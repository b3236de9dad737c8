package sink

import (
	"errors"

	"songcatalog/internal/lyrics"
	"songcatalog/internal/song"
)

// Target is what Multi writes to; Dir and Catalog both satisfy it.
type Target interface {
	SaveSongs(songs []song.Song) error
	SaveTitleErrors(raws []string) error
	SaveLyrics(m lyrics.Match) error
	SaveErrors(songs []song.Song) error
}

// Multi writes to every target in order. Every target is attempted; the
// first error is returned.
type Multi []Target

func (m Multi) each(fn func(Target) error) error {
	var errs []error
	for _, t := range m {
		if err := fn(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

func (m Multi) SaveSongs(songs []song.Song) error {
	return m.each(func(t Target) error { return t.SaveSongs(songs) })
}

func (m Multi) SaveTitleErrors(raws []string) error {
	return m.each(func(t Target) error { return t.SaveTitleErrors(raws) })
}

func (m Multi) SaveLyrics(match lyrics.Match) error {
	return m.each(func(t Target) error { return t.SaveLyrics(match) })
}

func (m Multi) SaveErrors(songs []song.Song) error {
	return m.each(func(t Target) error { return t.SaveErrors(songs) })
}

// ErrorsLocation reports the first target that names one.
func (m Multi) ErrorsLocation() string {
	for _, t := range m {
		if l, ok := t.(interface{ ErrorsLocation() string }); ok {
			return l.ErrorsLocation()
		}
	}
	return ""
}

// Close closes every target that holds resources.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if c, ok := t.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
