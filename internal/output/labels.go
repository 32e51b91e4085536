package output

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/quorum/internal/review"
)

var titleCaser = cases.Title(language.English)

// severityLabel renders a severity as "Critical", "High", ...
func severityLabel(s review.Severity) string {
	if s == "" {
		return "Unknown"
	}
	return titleCaser.String(string(s))
}

func severityEmoji(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "🔴"
	case review.SeverityHigh:
		return "🟠"
	case review.SeverityMedium:
		return "🟡"
	case review.SeverityLow:
		return "🟢"
	default:
		return "ℹ️"
	}
}

// fenceLanguage picks a code fence info string for a file. It prefers the
// chroma lexer alias and falls back to the review's language name.
func fenceLanguage(path, fallback string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		if ext := filepath.Ext(path); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		if aliases := lexer.Config().Aliases; len(aliases) > 0 {
			return aliases[0]
		}
		return strings.ToLower(lexer.Config().Name)
	}
	return fallback
}

// groupByFile buckets findings per file, keeping first-appearance order of
// files and the ranked order within each file.
func groupByFile(findings []review.Finding) ([]string, map[string][]review.Finding) {
	var order []string
	byFile := make(map[string][]review.Finding)
	for _, f := range findings {
		file := f.File
		if file == "" {
			file = "unknown"
		}
		if _, ok := byFile[file]; !ok {
			order = append(order, file)
		}
		byFile[file] = append(byFile[file], f)
	}
	return order, byFile
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func percent(c float64) string {
	return strconv.Itoa(int(math.Round(c*100))) + "%"
}

// metaString reads a string entry from report metadata.
func metaString(report *review.Report, key string) string {
	s, _ := report.Metadata[key].(string)
	return s
}
