package docsec

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
)

// testParagraph describes one paragraph for synthesizing a minimal .docx
// package in tests: a styleID of "" is plain body text, "HeadingN" opens a
// section at level N.
type testParagraph struct {
	styleID string
	text    string
}

// buildTestDocx assembles the smallest valid .docx zip carrying the given
// paragraph sequence, enough for this package's parser/commit engine to
// operate on.
func buildTestDocx(paragraphs []testParagraph) []byte {
	body := newElement("body")
	for _, tp := range paragraphs {
		p := newElement("p")
		if tp.styleID != "" {
			pPr := newElement("pPr")
			pStyle := newElement("pStyle")
			pStyle.Attr = []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: tp.styleID}}
			pPr.Children = append(pPr.Children, pStyle)
			p.Children = append(p.Children, pPr)
		}
		r := newElement("r")
		t := newElement("t")
		t.Children = append(t.Children, textNode(tp.text))
		r.Children = append(r.Children, t)
		p.Children = append(p.Children, r)
		body.Children = append(body.Children, p)
	}

	doc := newElement("document")
	doc.Children = append(doc.Children, body)

	docXML, err := renderXMLDocument(doc)
	if err != nil {
		panic(err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(documentPart)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(docXML); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
