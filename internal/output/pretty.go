package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/dshills/quorum/internal/review"
)

// PrettyWriter renders the markdown report for the terminal with glamour.
type PrettyWriter struct {
	// Style is a glamour standard style name: "dark", "light", "notty", ...
	Style string
	// Width is the word-wrap column. Zero means 100.
	Width int
}

func (p *PrettyWriter) Write(w io.Writer, report *review.Report) error {
	var md bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&md, report); err != nil {
		return err
	}

	style := p.Style
	if style == "" {
		style = "notty"
	}
	width := p.Width
	if width <= 0 {
		width = 100
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(md.String())
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
