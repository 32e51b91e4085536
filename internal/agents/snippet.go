package agents

import (
	"strings"

	"github.com/dshills/quorum/internal/diffparse"
)

const maxSnippetLines = 10

// Snippet returns the new-file lines of patch within radius of line, with
// their diff markers. Removed lines adjacent to the target are included.
// It returns "" when the line is not part of the patch.
func Snippet(patch string, line, radius int) string {
	var out []string
	found := false
	for _, l := range diffparse.ExtractChangedLines(patch, radius) {
		if l.Number < line-radius || l.Number > line+radius {
			continue
		}
		if l.Number == line && l.Kind != diffparse.Removed {
			found = true
		}
		out = append(out, l.Kind.Marker()+l.Text)
	}
	if !found {
		return ""
	}
	return TruncateLines(strings.Join(out, "\n"), maxSnippetLines)
}

// TruncateLines keeps at most max lines of code and marks the cut.
func TruncateLines(code string, max int) string {
	lines := strings.Split(code, "\n")
	if len(lines) <= max {
		return code
	}
	lines = append(lines[:max], "... (truncated)")
	return strings.Join(lines, "\n")
}
