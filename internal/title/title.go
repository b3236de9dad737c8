// Package title turns free-form titles such as "Artist A, Artist B - Song"
// into an artist list and a song title.
package title

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// artist token: letters, digits, underscore, dots and spaces
const token = `[\p{L}\p{M}\p{N}_. ]+`

// artists: one or more tokens joined by ',', '&' or '/'
const artists = token + `(?:[,&/]` + token + `)*`

var (
	// artists first: "Queen & David Bowie - Under Pressure"
	patternA = regexp.MustCompile(`^(` + artists + `)\s*[-|]\s*(.+)$`)
	// title first: "Don't Stop Me Now (Live) | Queen"
	patternB = regexp.MustCompile(`^(.+?)\s*[-|]\s*(` + artists + `)$`)

	artistDelims = regexp.MustCompile(`[,&/]`)
)

// Parsed is a successfully parsed title.
type Parsed struct {
	Artists []string
	Title   string
}

// ParseError reports a title that fits neither grammar.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable title %q: %s", e.Raw, e.Reason)
}

// Parse strips pictographs from raw, maps Unicode spaces such as U+00A0 to
// ASCII spaces and matches it against the artists-first pattern, then the
// title-first pattern. The first pattern that matches wins, even when both would.
func Parse(raw string) (Parsed, error) {
	clean := normalizeSpaces(StripPictographs(raw))

	if m := patternA.FindStringSubmatch(clean); m != nil {
		return build(raw, m[1], m[2])
	}
	if m := patternB.FindStringSubmatch(clean); m != nil {
		return build(raw, m[2], m[1])
	}
	return Parsed{}, &ParseError{Raw: raw, Reason: "no artist/title separator match"}
}

// FromParts normalizes an entry whose artist and title were already split
// upstream, e.g. a chart row or an audio tag.
func FromParts(artistLine, songTitle string) (Parsed, error) {
	raw := artistLine + " - " + songTitle
	return build(raw, normalizeSpaces(StripPictographs(artistLine)), normalizeSpaces(StripPictographs(songTitle)))
}

// RE2 \s only knows ASCII whitespace.
func normalizeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Zs, r) {
			return ' '
		}
		return r
	}, s)
}

func build(raw, artistGroup, songTitle string) (Parsed, error) {
	p := Parsed{
		Artists: SplitArtists(artistGroup),
		Title:   strings.TrimSpace(songTitle),
	}
	if len(p.Artists) == 0 {
		return Parsed{}, &ParseError{Raw: raw, Reason: "no artists"}
	}
	if p.Title == "" {
		return Parsed{}, &ParseError{Raw: raw, Reason: "empty title"}
	}
	return p, nil
}

// SplitArtists splits an artist group on ',', '&' and '/' and drops empty names.
func SplitArtists(group string) []string {
	var out []string
	for _, a := range artistDelims.Split(group, -1) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// StripPictographs removes emoji and other pictographic symbols together with
// the invisible characters that compose them (variation selectors, joiners,
// skin tone modifiers, keycap combiners).
func StripPictographs(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.So, r):
			return -1
		case r == 0xFE0E || r == 0xFE0F: // variation selectors
			return -1
		case r == 0x200D: // zero width joiner
			return -1
		case r >= 0x1F3FB && r <= 0x1F3FF: // skin tones
			return -1
		case r == 0x20E3: // keycap
			return -1
		case r >= 0xE0020 && r <= 0xE007F: // flag tags
			return -1
		}
		return r
	}, s)
}
