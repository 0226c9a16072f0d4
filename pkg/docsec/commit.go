package docsec

import (
	"strings"

	"github.com/sectionforge/sectionforge/pkg/markdown"
)

// Mode selects how the Commit Engine integrates generated content into a
// section, per spec.md §4.7.
type Mode string

const (
	ModeReplace Mode = "REPLACE"
	ModeRework  Mode = "REWORK"
	ModeAppend  Mode = "APPEND"
)

// Formatting is the configured overlay applied to generated runs, per
// spec.md §4.2.
type Formatting struct {
	HighlightColor string
	Bold           bool
	Italic         bool
	Underline      bool
	FontSize       int
	FontColor      string
}

func (f Formatting) overlay() markdown.Overlay {
	return markdown.Overlay{
		HighlightColor: f.HighlightColor,
		Bold:           f.Bold,
		Italic:         f.Italic,
		Underline:      f.Underline,
		FontSize:       f.FontSize,
		FontColor:      f.FontColor,
	}
}

// DefaultFormatting matches the "highlight is the default signal a run was
// machine-generated" guidance of spec.md §4.2.
func DefaultFormatting() Formatting {
	return Formatting{HighlightColor: "yellow"}
}

// Commit applies generated markdown content to a section under mode,
// mutating the document's live OOXML tree and rebuilding the section
// index from it afterward — per spec.md §9's redesign note, paragraphs are
// never addressed by long-lived reference, only by position recomputed
// from the live tree at commit time.
//
// Commit acquires the document's write lock for its full duration: the
// Section Store's "one writer per document" policy (spec.md §4.3, §5).
func Commit(d *Document, sectionID string, content string, mode Mode, fmtting Formatting) (*Section, error) {
	var target *Section
	err := d.withWriteLock(func() error {
		sec, ok := d.index[sectionID]
		if !ok {
			return errSectionNotFound(sectionID)
		}

		blocks := markdown.Convert(content, sec.Heading, fmtting.overlay())
		newNodes := buildBlocks(blocks)

		body := d.pkg.body
		start, end := sec.ContentStart(), sec.ContentEnd()

		switch mode {
		case ModeReplace, ModeRework:
			body.Children = spliceNodes(body.Children, start, end, newNodes)
		case ModeAppend:
			body.Children = spliceNodes(body.Children, end, end, newNodes)
		default:
			return errInvalidMode(string(mode))
		}

		// Headings are never touched above; re-deriving the tree from the
		// mutated body recomputes every section's position without ever
		// reusing a stale index, and preserves hashes for any section whose
		// path did not change.
		d.roots, d.index, d.byHash = buildSectionTree(d.pkg, d.ID)
		target = d.index[sectionID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// spliceNodes removes children[start:end) and inserts insert in their
// place, returning the new slice. It never mutates the input slice's
// backing array in place in a way that would alias insert's slice.
func spliceNodes(children []*node, start, end int, insert []*node) []*node {
	out := make([]*node, 0, len(children)-(end-start)+len(insert))
	out = append(out, children[:start]...)
	out = append(out, insert...)
	out = append(out, children[end:]...)
	return out
}

// errSectionNotFound / errInvalidMode are defined in errors.go.

// IsSuppressedHeadingLine reports whether trimmed text case-insensitively
// equals heading; exported for the Prompt Builder's dedup preview use, if
// ever needed, and for tests.
func IsSuppressedHeadingLine(text, heading string) bool {
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(heading))
}
