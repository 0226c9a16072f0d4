package docsec

import (
	"encoding/xml"
	"strconv"

	"github.com/sectionforge/sectionforge/pkg/markdown"
)

// styleIDForKind maps a converted paragraph kind back to a paragraph style
// id recognizable on the next parse (heading kinds must round-trip through
// paragraphHeadingLevel).
func styleIDForKind(kind markdown.ParagraphKind, level int) string {
	switch kind {
	case markdown.KindHeading:
		return "Heading" + strconv.Itoa(level)
	case markdown.KindBullet:
		return "ListParagraph"
	case markdown.KindNumber:
		return "ListNumber"
	case markdown.KindQuote:
		return "Quote"
	case markdown.KindCode:
		return "SourceCode"
	default:
		return ""
	}
}

// buildParagraphNode renders one converted Paragraph into a <w:p> node.
func buildParagraphNode(p *markdown.Paragraph) *node {
	el := newElement("p")

	if p.Kind == markdown.KindHR {
		pPr := newElement("pPr")
		border := newElement("pBdr")
		bottom := newElement("bottom")
		bottom.Attr = []xml.Attr{
			{Name: xml.Name{Space: "w", Local: "val"}, Value: "single"},
			{Name: xml.Name{Space: "w", Local: "sz"}, Value: "6"},
			{Name: xml.Name{Space: "w", Local: "space"}, Value: "1"},
		}
		border.Children = append(border.Children, bottom)
		pPr.Children = append(pPr.Children, border)
		el.Children = append(el.Children, pPr)
		return el
	}

	if styleID := styleIDForKind(p.Kind, p.Level); styleID != "" {
		pPr := newElement("pPr")
		pStyle := newElement("pStyle")
		pStyle.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: styleID}}
		pPr.Children = append(pPr.Children, pStyle)
		el.Children = append(el.Children, pPr)
	}

	for _, r := range p.Runs {
		el.Children = append(el.Children, buildRunNode(r))
	}
	return el
}

func buildRunNode(r markdown.Run) *node {
	run := newElement("r")

	rPr := newElement("rPr")
	if r.Style.Bold {
		rPr.Children = append(rPr.Children, newElement("b"))
	}
	if r.Style.Italic {
		rPr.Children = append(rPr.Children, newElement("i"))
	}
	if r.Style.Strike {
		rPr.Children = append(rPr.Children, newElement("strike"))
	}
	if r.Style.Underline {
		u := newElement("u")
		u.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: "single"}}
		rPr.Children = append(rPr.Children, u)
	}
	if r.Style.Code {
		rFonts := newElement("rFonts")
		rFonts.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "ascii"}, Value: "Consolas"}}
		rPr.Children = append(rPr.Children, rFonts)
	}
	if r.Style.HighlightColor != "" {
		hl := newElement("highlight")
		hl.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: r.Style.HighlightColor}}
		rPr.Children = append(rPr.Children, hl)
	}
	fontColor := r.Style.FontColor
	if fontColor == "" && r.Style.Link {
		fontColor = "0563C1" // hyperlink blue
	}
	if fontColor != "" {
		color := newElement("color")
		color.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: fontColor}}
		rPr.Children = append(rPr.Children, color)
	}
	if r.Style.FontSize > 0 {
		sz := newElement("sz")
		sz.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: strconv.Itoa(r.Style.FontSize * 2)}}
		rPr.Children = append(rPr.Children, sz)
	}

	if len(rPr.Children) > 0 {
		run.Children = append(run.Children, rPr)
	}

	t := newElement("t")
	t.Attr = []xml.Attr{{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"}}
	t.Children = append(t.Children, textNode(r.Text))
	run.Children = append(run.Children, t)

	return run
}

func buildTableNode(tbl *markdown.Table) *node {
	el := newElement("tbl")

	headerRow := newElement("tr")
	for _, cell := range tbl.Header {
		headerRow.Children = append(headerRow.Children, buildTableCell(cell, true))
	}
	el.Children = append(el.Children, headerRow)

	for _, row := range tbl.Rows {
		tr := newElement("tr")
		for _, cell := range row {
			tr.Children = append(tr.Children, buildTableCell(cell, false))
		}
		el.Children = append(el.Children, tr)
	}
	return el
}

func buildTableCell(text string, bold bool) *node {
	tc := newElement("tc")
	p := newElement("p")
	run := newElement("r")
	if bold {
		rPr := newElement("rPr")
		rPr.Children = append(rPr.Children, newElement("b"))
		run.Children = append(run.Children, rPr)
	}
	t := newElement("t")
	t.Children = append(t.Children, textNode(text))
	run.Children = append(run.Children, t)
	p.Children = append(p.Children, run)
	tc.Children = append(tc.Children, p)
	return tc
}

// buildBlocks converts a sequence of markdown blocks into body-level nodes
// ready for insertion, preserving block order.
func buildBlocks(blocks []markdown.Block) []*node {
	var out []*node
	for _, b := range blocks {
		switch {
		case b.Table != nil:
			out = append(out, buildTableNode(b.Table))
		case b.Paragraph != nil:
			out = append(out, buildParagraphNode(b.Paragraph))
		}
	}
	return out
}
