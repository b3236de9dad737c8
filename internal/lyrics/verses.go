package lyrics

import (
	"regexp"
	"strings"
)

// a line that is only a section marker: [Chorus], [Verse 2: Freddie Mercury]
var sectionTag = regexp.MustCompile(`^\[[^\[\]]*\]$`)

// Verse is one lyric line with its stanza and global line number, both 1-based.
type Verse struct {
	Stanza int
	Number int
	Line   string
}

// Verses splits lyric text into numbered lines. A run of blank lines closes
// the current stanza once there is at least one verse; section tag lines are
// dropped. Verse numbers keep counting across stanzas.
func Verses(text string) []Verse {
	var out []Verse
	stanza, number := 1, 1
	pendingBreak := false

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if number > 1 {
				pendingBreak = true
			}
			continue
		}
		if sectionTag.MatchString(line) {
			continue
		}
		if pendingBreak {
			stanza++
			pendingBreak = false
		}
		out = append(out, Verse{Stanza: stanza, Number: number, Line: line})
		number++
	}
	return out
}
