package docsec

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// node is a minimal generic XML DOM. The real OOXML document part carries
// far more structure than this package cares about (theme, numbering
// overrides, revision marks); rather than modeling all of it with typed
// structs (which would silently drop anything unmodeled on re-encode), we
// keep every element as a generic node and only interpret the handful of
// elements (w:p, w:r, w:t, w:tbl, w:pStyle, w:style) this package acts on.
// Every other element, attribute and text node is carried through
// Children/Attr; XML comments and processing instructions are not kept.
type node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*node
	Text     string // set only for character-data leaves (Name.Local == "")
}

func isText(n *node) bool { return n.Name.Local == "" }

func newElement(local string) *node {
	return &node{Name: xml.Name{Space: "w", Local: local}}
}

func textNode(s string) *node {
	return &node{Text: s}
}

// parseXMLDocument parses a full XML document and returns its single root
// element (e.g. <w:document>).
func parseXMLDocument(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*node
	var root *node

	for {
		tok, err := dec.Token()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = n
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			txt := string(t)
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, textNode(txt))
		}
	}

	if root == nil {
		return nil, fmt.Errorf("empty xml document")
	}
	return root, nil
}

// renderXMLDocument writes root and its subtree back out as XML, preceded
// by the standard XML declaration.
func renderXMLDocument(root *node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := writeNode(enc, root); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(enc *xml.Encoder, n *node) error {
	if isText(n) {
		return enc.EncodeToken(xml.CharData(n.Text))
	}
	start := xml.StartElement{Name: n.Name, Attr: n.Attr}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := writeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: n.Name})
}

// child returns the first direct child element with the given local name.
func child(n *node, local string) *node {
	for _, c := range n.Children {
		if !isText(c) && c.Name.Local == local {
			return c
		}
	}
	return nil
}

// children returns all direct child elements with the given local name.
func children(n *node, local string) []*node {
	var out []*node
	for _, c := range n.Children {
		if !isText(c) && c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// attrVal returns the value of the attribute with the given local name.
func attrVal(n *node, local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// textContent concatenates every text descendant under n, in document order.
func textContent(n *node) string {
	var buf bytes.Buffer
	var walk func(*node)
	walk = func(n *node) {
		if isText(n) {
			buf.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
