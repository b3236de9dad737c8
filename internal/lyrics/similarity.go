package lyrics

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the similarity a candidate title must exceed to match.
const DefaultThreshold = 0.8

// ignored when comparing titles
var separators = strings.NewReplacer(" ", "", "-", "", "_", "", "|", "", ",", "")

// Similarity scores a and b in [0, 1] by edit distance, ignoring spaces and
// the separators - _ | and comma. Two strings that are equal once separators
// are removed score 1.
func Similarity(a, b string) float64 {
	a = separators.Replace(a)
	b = separators.Replace(b)

	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
