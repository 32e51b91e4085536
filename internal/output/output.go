package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/quorum/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// Options tunes the human-facing writers.
type Options struct {
	// Color enables ANSI styling in text output and glamour's dark theme in
	// pretty output.
	Color bool
}

// Formats lists every supported format name.
func Formats() []string {
	return []string{"text", "json", "markdown", "github", "sarif", "pretty"}
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{Color: opts.Color}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "github":
		return &GitHubCommentWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	case "pretty":
		style := "notty"
		if opts.Color {
			style = "dark"
		}
		return &PrettyWriter{Style: style}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to outPath, or stdout when outPath is empty.
func WriteReport(report *review.Report, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return writer.Write(w, report)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
