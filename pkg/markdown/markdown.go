// Package markdown implements the Markdown→RichText Converter (C2): a
// pure function translating the restricted markdown dialect of spec.md
// §4.2 into paragraph/run/table descriptors the Commit Engine can insert
// into a document. It performs no I/O and is deterministic.
package markdown

import (
	"regexp"
	"strings"
)

// ParagraphKind discriminates the emitted paragraph shapes of spec.md §4.2.
type ParagraphKind int

const (
	KindNormal ParagraphKind = iota
	KindHeading
	KindBullet
	KindNumber
	KindQuote
	KindCode
	KindHR
)

// RunStyle is the inline formatting applied to a Run, per spec.md §4.2's
// inline construct table.
type RunStyle struct {
	Bold      bool
	Italic    bool
	Strike    bool
	Underline bool
	Code      bool
	Link      bool // hyperlink run (rendered as underlined + colored, not a true field)

	// Overlay fields, set only when no inline style above already applies;
	// spec.md §4.2: "apply to every emitted run that is not already
	// formatted otherwise".
	HighlightColor string
	FontColor      string
	FontSize       int
}

// Run is one contiguous span of text sharing a single RunStyle.
type Run struct {
	Text  string
	Style RunStyle
}

// Paragraph is one emitted paragraph-level block.
type Paragraph struct {
	Kind  ParagraphKind
	Level int // heading level, 1-6; meaningful only when Kind == KindHeading
	Runs  []Run
}

// Table is an emitted grid table with a bolded header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// Block is one converted unit: exactly one of Paragraph or Table is set.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// Overlay is the configured formatting applied to every run not already
// carrying inline formatting — the default signal a run was
// machine-generated (spec.md §4.2).
type Overlay struct {
	HighlightColor string
	Bold           bool
	Italic         bool
	Underline      bool
	FontSize       int
	FontColor      string
}

var (
	headingRE = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	hrRE      = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	bulletRE  = regexp.MustCompile(`^[*-]\s+(.*)$`)
	numberRE  = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	quoteRE   = regexp.MustCompile(`^>\s?(.*)$`)
	sepCellRE = regexp.MustCompile(`^:?-+:?$`)
)

// Convert translates markdown text into an ordered list of blocks.
// suppressHeading, when non-empty, is the target section's own heading
// text; any emitted paragraph that is textually identical to it
// (case-insensitive) is dropped, per spec.md §4.2.
func Convert(text string, suppressHeading string, overlay Overlay) []Block {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var blocks []Block
	suppress := strings.ToLower(strings.TrimSpace(suppressHeading))

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue

		case strings.HasPrefix(trimmed, "```"):
			j := i + 1
			var code []string
			for j < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
				code = append(code, lines[j])
				j++
			}
			blocks = append(blocks, Block{Paragraph: &Paragraph{
				Kind: KindCode,
				Runs: []Run{{Text: strings.Join(code, "\n"), Style: RunStyle{Code: true}}},
			}})
			i = j // skip past closing fence

		case hrRE.MatchString(trimmed):
			blocks = append(blocks, Block{Paragraph: &Paragraph{Kind: KindHR}})

		case headingRE.MatchString(trimmed):
			m := headingRE.FindStringSubmatch(trimmed)
			level := len(m[1])
			headingText := strings.TrimSpace(m[2])
			if strings.ToLower(headingText) == suppress && suppress != "" {
				continue
			}
			blocks = append(blocks, Block{Paragraph: &Paragraph{
				Kind: KindHeading, Level: level, Runs: applyOverlay(parseInline(headingText), overlay),
			}})

		case looksLikeTableStart(lines, i):
			tbl, consumed, ok := parseTable(lines, i)
			if ok {
				blocks = append(blocks, Block{Table: tbl})
				i += consumed - 1
				continue
			}
			// malformed table: fall back to literal text for this line
			blocks = append(blocks, Block{Paragraph: &Paragraph{Kind: KindNormal, Runs: applyOverlay([]Run{{Text: line}}, overlay)}})

		case quoteRE.MatchString(trimmed):
			m := quoteRE.FindStringSubmatch(trimmed)
			blocks = append(blocks, Block{Paragraph: &Paragraph{Kind: KindQuote, Runs: applyOverlay(parseInline(m[1]), overlay)}})

		case bulletRE.MatchString(trimmed):
			m := bulletRE.FindStringSubmatch(trimmed)
			blocks = append(blocks, Block{Paragraph: &Paragraph{Kind: KindBullet, Runs: applyOverlay(parseInline(m[1]), overlay)}})

		case numberRE.MatchString(trimmed):
			m := numberRE.FindStringSubmatch(trimmed)
			blocks = append(blocks, Block{Paragraph: &Paragraph{Kind: KindNumber, Runs: applyOverlay(parseInline(m[1]), overlay)}})

		default:
			if strings.ToLower(trimmed) == suppress && suppress != "" {
				continue
			}
			blocks = append(blocks, Block{Paragraph: &Paragraph{Kind: KindNormal, Runs: applyOverlay(parseInline(trimmed), overlay)}})
		}
	}

	return blocks
}

// applyOverlay sets overlay formatting on every run that carries no inline
// style of its own.
func applyOverlay(runs []Run, overlay Overlay) []Run {
	for i := range runs {
		s := runs[i].Style
		if s.Bold || s.Italic || s.Strike || s.Underline || s.Code || s.Link {
			continue
		}
		s.HighlightColor = overlay.HighlightColor
		s.FontColor = overlay.FontColor
		s.FontSize = overlay.FontSize
		if overlay.Bold {
			s.Bold = true
		}
		if overlay.Italic {
			s.Italic = true
		}
		if overlay.Underline {
			s.Underline = true
		}
		runs[i].Style = s
	}
	return runs
}

func looksLikeTableStart(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	if !strings.Contains(lines[i], "|") {
		return false
	}
	sep := strings.TrimSpace(lines[i+1])
	if !strings.Contains(sep, "|") && !strings.Contains(sep, "-") {
		return false
	}
	for _, cell := range splitRow(sep) {
		if !sepCellRE.MatchString(strings.TrimSpace(cell)) {
			return false
		}
	}
	return true
}

// parseTable consumes a header row, a separator row, and every following
// contiguous data row starting at i. It returns ok=false (no lines
// consumed) if the table is malformed per spec.md §4.2's requirements.
func parseTable(lines []string, i int) (*Table, int, bool) {
	header := splitRow(lines[i])
	sepCells := splitRow(lines[i+1])
	if len(header) == 0 || len(sepCells) != len(header) {
		return nil, 0, false
	}
	for _, c := range sepCells {
		if !sepCellRE.MatchString(strings.TrimSpace(c)) {
			return nil, 0, false
		}
	}

	var rows [][]string
	j := i + 2
	for j < len(lines) && strings.Contains(lines[j], "|") && strings.TrimSpace(lines[j]) != "" {
		rows = append(rows, splitRow(lines[j]))
		j++
	}
	if len(rows) == 0 {
		return nil, 0, false // at least one data row required
	}

	return &Table{Header: header, Rows: rows}, j - i, true
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
