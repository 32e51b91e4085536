package diffparse

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies a line inside a hunk.
type LineKind int

const (
	Context LineKind = iota
	Added
	Removed
)

func (k LineKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Marker returns the unified diff prefix for the kind.
func (k LineKind) Marker() string {
	switch k {
	case Added:
		return "+"
	case Removed:
		return "-"
	default:
		return " "
	}
}

// Line is one changed or context line with its new-file line number.
// Removed lines carry the number of the next line in the new file.
type Line struct {
	Number int
	Kind   LineKind
	Text   string
}

// Hunk is one @@ block of a file diff.
type Hunk struct {
	Header   string
	OldStart int
	OldLines *int // nil when the header omits the length
	NewStart int
	NewLines *int
	Lines    []Line
}

// ChangeRecord holds the parsed changes for one file in a diff.
type ChangeRecord struct {
	Filename     string
	Language     string // empty when the extension is unknown
	Hunks        []Hunk
	AddedLines   []string
	RemovedLines []string
	ContextLines []string
}

var (
	hunkHeaderRe = regexp.MustCompile(`@@ -(\d+)(?:,(\d*))? \+(\d+)(?:,(\d*))? @@`)
	newStartRe   = regexp.MustCompile(`\+(\d+)`)
)

const (
	fileMarker = "diff --git"
	newMarker  = "+++"
	oldMarker  = "---"
	hunkMarker = "@@"
)

// parser holds the state of a single Parse pass.
type parser struct {
	records []ChangeRecord
	cur     *ChangeRecord
	hunk    *Hunk
	newLine int
}

// Parse parses unified diff text into one ChangeRecord per "diff --git"
// section. It never fails: malformed input yields a partial or empty result.
func Parse(diffText string) []ChangeRecord {
	if diffText == "" {
		return []ChangeRecord{}
	}

	p := &parser{}
	for _, line := range strings.Split(diffText, "\n") {
		p.consume(strings.TrimSuffix(line, "\r"))
	}
	p.flushRecord()

	if p.records == nil {
		return []ChangeRecord{}
	}
	return p.records
}

func (p *parser) consume(line string) {
	switch {
	case strings.HasPrefix(line, fileMarker):
		p.flushRecord()
		p.cur = &ChangeRecord{}

	case strings.HasPrefix(line, newMarker):
		if p.cur == nil {
			return
		}
		p.cur.Filename = stripNewPath(line)
		p.cur.Language = DetectLanguage(p.cur.Filename)

	case strings.HasPrefix(line, oldMarker):
		// old path is not tracked

	case strings.HasPrefix(line, hunkMarker):
		if p.cur == nil {
			return
		}
		p.flushHunk()
		h := parseHunkHeader(line)
		p.hunk = &h
		p.newLine = h.NewStart

	case strings.HasPrefix(line, "+"):
		if p.cur == nil {
			return
		}
		text := line[1:]
		p.cur.AddedLines = append(p.cur.AddedLines, text)
		p.appendLine(Added, text)

	case strings.HasPrefix(line, "-"):
		if p.cur == nil {
			return
		}
		text := line[1:]
		p.cur.RemovedLines = append(p.cur.RemovedLines, text)
		p.appendLine(Removed, text)

	case strings.HasPrefix(line, " "):
		if p.cur == nil {
			return
		}
		text := line[1:]
		p.cur.ContextLines = append(p.cur.ContextLines, text)
		p.appendLine(Context, text)
	}
}

func (p *parser) appendLine(kind LineKind, text string) {
	// Lines before the first @@ go into a hunk with no header.
	if p.hunk == nil {
		p.hunk = &Hunk{}
		p.newLine = 0
	}
	p.hunk.Lines = append(p.hunk.Lines, Line{Number: p.newLine, Kind: kind, Text: text})
	if kind != Removed {
		p.newLine++
	}
}

func (p *parser) flushHunk() {
	if p.hunk == nil || p.cur == nil {
		return
	}
	p.cur.Hunks = append(p.cur.Hunks, *p.hunk)
	p.hunk = nil
}

func (p *parser) flushRecord() {
	if p.cur == nil {
		return
	}
	p.flushHunk()
	p.records = append(p.records, *p.cur)
	p.cur = nil
}

func stripNewPath(line string) string {
	name := strings.TrimSpace(strings.TrimPrefix(line, newMarker))
	return strings.TrimPrefix(name, "b/")
}

func parseHunkHeader(line string) Hunk {
	h := Hunk{Header: line}
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return h
	}
	h.OldStart, _ = strconv.Atoi(m[1])
	h.OldLines = optionalInt(m[2])
	h.NewStart, _ = strconv.Atoi(m[3])
	h.NewLines = optionalInt(m[4])
	return h
}

func optionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ExtractChangedLines walks a single file patch and returns every added,
// removed, and context line with its new-file line number. contextLines is
// reserved for trimming context around changes; all context is returned today.
func ExtractChangedLines(patch string, contextLines int) []Line {
	_ = contextLines
	if patch == "" {
		return nil
	}

	var result []Line
	current := 0
	for _, line := range strings.Split(patch, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, hunkMarker):
			if m := newStartRe.FindStringSubmatch(line); m != nil {
				current, _ = strconv.Atoi(m[1])
			}
		case strings.HasPrefix(line, newMarker), strings.HasPrefix(line, oldMarker):
		case strings.HasPrefix(line, "+"):
			result = append(result, Line{Number: current, Kind: Added, Text: line[1:]})
			current++
		case strings.HasPrefix(line, "-"):
			result = append(result, Line{Number: current, Kind: Removed, Text: line[1:]})
		case strings.HasPrefix(line, " "):
			result = append(result, Line{Number: current, Kind: Context, Text: line[1:]})
			current++
		}
	}
	return result
}

// Patch rebuilds the hunk portion of a file diff from a parsed record.
func Patch(rec ChangeRecord) string {
	var lines []string
	for _, h := range rec.Hunks {
		if h.Header != "" {
			lines = append(lines, h.Header)
		}
		for _, l := range h.Lines {
			lines = append(lines, l.Kind.Marker()+l.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// Stats returns the number of added and removed lines across records.
func Stats(records []ChangeRecord) (files, added, removed int) {
	files = len(records)
	for _, r := range records {
		added += len(r.AddedLines)
		removed += len(r.RemovedLines)
	}
	return
}
