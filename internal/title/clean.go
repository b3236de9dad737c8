package title

import (
	"regexp"
	"strings"
)

// Upload noise found on video titles. Removed before parsing feed entries
// from video platforms.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[\(\[]official\s+(music\s+|lyric\s+)?video[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[]official\s+(audio|visualizer)[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[](lyrics?|letra|audio|visual(izer)?|video\s*clip|videoclip)[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[](hd|hq|4k|explicit|clean)[\)\]]`),
}

var featuring = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s+([^\)\]]+)[\)\]]`)

// CleanVideoTitle removes upload suffixes like "(Official Video)" and moves
// "(feat. X)" credits out of the title. The featured names are returned so
// callers can append them to the artist list.
func CleanVideoTitle(s string) (cleaned string, featured []string) {
	for _, p := range noisePatterns {
		s = p.ReplaceAllString(s, "")
	}
	for _, m := range featuring.FindAllStringSubmatch(s, -1) {
		featured = append(featured, SplitArtists(m[1])...)
	}
	s = featuring.ReplaceAllString(s, "")
	return strings.TrimSpace(s), featured
}
