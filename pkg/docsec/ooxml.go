package docsec

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
	commentsPart = "word/comments.xml"
)

// ooxmlPackage is an in-memory, mutable view of a .docx zip archive.
// Every part other than document.xml is kept as opaque bytes and written
// back unchanged, so headers/footers/theme/media survive a commit.
type ooxmlPackage struct {
	parts map[string][]byte // zip entry name -> raw bytes, excluding documentPart
	body  *node             // word/document.xml -> w:document -> w:body
	doc   *node             // the w:document root itself, for re-serialization

	stylesNameByID map[string]string // styleId -> style display name, as written in styles.xml
	comments       []Comment
}

// Comment is a best-effort (author, text, timestamp) tuple extracted from
// the comments sidecar part, per spec.md §4.1's optional comment extraction.
type Comment struct {
	Author    string
	Text      string
	Timestamp string
	ParaIndex int // index into body.Children of the block carrying the comment's reference
}

func openPackage(data []byte) (*ooxmlPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx zip: %w", err)
	}

	pkg := &ooxmlPackage{parts: make(map[string][]byte)}

	var documentXML, stylesXML, commentsXML []byte

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
		}

		switch f.Name {
		case documentPart:
			documentXML = raw
		case stylesPart:
			stylesXML = raw
			pkg.parts[f.Name] = raw
		case commentsPart:
			commentsXML = raw
			pkg.parts[f.Name] = raw
		default:
			pkg.parts[f.Name] = raw
		}
	}

	if documentXML == nil {
		return nil, fmt.Errorf("not a valid docx package: missing %s", documentPart)
	}

	doc, err := parseXMLDocument(documentXML)
	if err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}
	pkg.doc = doc
	pkg.body = child(doc, "body")
	if pkg.body == nil {
		return nil, fmt.Errorf("document.xml has no w:body")
	}

	pkg.stylesNameByID = parseStyles(stylesXML)
	if commentsXML != nil {
		pkg.comments = parseComments(commentsXML, pkg.body)
	}

	return pkg, nil
}

// bytes re-serializes the package into a new .docx zip, preserving every
// unmodified part verbatim and re-rendering document.xml from the live tree.
func (p *ooxmlPackage) bytes() ([]byte, error) {
	docXML, err := renderXMLDocument(p.doc)
	if err != nil {
		return nil, fmt.Errorf("render document.xml: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if err := write(documentPart, docXML); err != nil {
		return nil, err
	}
	for name, data := range p.parts {
		if err := write(name, data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx zip: %w", err)
	}
	return buf.Bytes(), nil
}

var headingStyleRE = regexp.MustCompile(`(?i)^heading\s*([0-9]+)$`)

// paragraphHeadingLevel returns the heading level (1-6) for paragraph p, or
// ok=false if p is not a recognized heading paragraph, per spec.md §4.1.
func (p *ooxmlPackage) paragraphHeadingLevel(para *node) (int, bool) {
	pPr := child(para, "pPr")
	if pPr == nil {
		return 0, false
	}
	pStyle := child(pPr, "pStyle")
	if pStyle == nil {
		return 0, false
	}
	styleID, _ := attrVal(pStyle, "val")
	if styleID == "" {
		return 0, false
	}

	name := p.stylesNameByID[styleID]
	if name == "" {
		name = styleID
	}

	m := headingStyleRE.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	level, err := strconv.Atoi(m[1])
	if err != nil || level < 1 || level > 6 {
		return 0, false
	}
	return level, true
}

// paragraphText concatenates the visible text runs of a paragraph.
func paragraphText(para *node) string {
	var buf strings.Builder
	for _, r := range children(para, "r") {
		for _, t := range children(r, "t") {
			buf.WriteString(textContent(t))
		}
	}
	return buf.String()
}

func parseStyles(data []byte) map[string]string {
	out := make(map[string]string)
	if data == nil {
		return out
	}
	root, err := parseXMLDocument(data)
	if err != nil {
		return out
	}
	for _, style := range children(root, "style") {
		id, ok := attrVal(style, "styleId")
		if !ok {
			continue
		}
		if nameEl := child(style, "name"); nameEl != nil {
			if val, ok := attrVal(nameEl, "val"); ok {
				out[id] = val
				continue
			}
		}
		out[id] = id
	}
	return out
}

// parseComments is intentionally loose: it associates each comment with the
// first top-level body element whose subtree carries a commentReference for
// the same w:id, ignores later references to an id already placed, and drops
// a comment that has no reference in the body. commentRangeStart markers are
// not consulted.
// This mirrors the "string-match and hope" extraction spec.md §9 calls out as
// incomplete upstream; we keep it best-effort rather than inventing precision
// the format doesn't reliably give us.
func parseComments(data []byte, body *node) []Comment {
	root, err := parseXMLDocument(data)
	if err != nil {
		return nil
	}

	type raw struct{ author, text, date string }
	byID := make(map[string]raw)
	for _, c := range children(root, "comment") {
		id, _ := attrVal(c, "id")
		author, _ := attrVal(c, "author")
		date, _ := attrVal(c, "date")
		byID[id] = raw{author: author, text: strings.TrimSpace(textContent(c)), date: date}
	}

	var out []Comment
	for idx, el := range body.Children {
		if isText(el) {
			continue
		}
		for _, ref := range findAll(el, "commentReference") {
			id, ok := attrVal(ref, "id")
			if !ok {
				continue
			}
			r, ok := byID[id]
			if !ok {
				continue
			}
			out = append(out, Comment{Author: r.author, Text: r.text, Timestamp: r.date, ParaIndex: idx})
			delete(byID, id) // each comment anchors at most once; ambiguous re-use is dropped
		}
	}
	return out
}

// findAll searches the subtree rooted at n (inclusive) for every element
// with the given local name.
func findAll(n *node, local string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(n *node) {
		if isText(n) {
			return
		}
		if n.Name.Local == local {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}
