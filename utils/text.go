package utils

import (
	"strings"

	"github.com/rivo/uniseg"
)

// GraphemeLen counts user-perceived characters, so Hangul or emoji input is
// measured the way the user typed it.
func GraphemeLen(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// Preview cuts s to at most n grapheme clusters, appending "..." when cut.
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	count := 0
	for g.Next() {
		if count == n {
			b.WriteString("...")
			return b.String()
		}
		b.WriteString(g.Str())
		count++
	}
	return b.String()
}
