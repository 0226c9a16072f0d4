package markdown

import "strings"

// parseInline scans s left-to-right, single pass, applying the precedence
// rule of spec.md §4.2: a **/__ pair always takes precedence over a bare
// */_, and inline code/strike/link are recognized independently of the
// bold/italic toggles.
func parseInline(s string) []Run {
	return parseInlineStyled(s, RunStyle{})
}

// parseInlineStyled parses s the same way as parseInline but applies base
// as the style for any plain-text run produced, letting bold/italic wrap a
// span that still recognizes nested code/strike/link markers.
func parseInlineStyled(s string, base RunStyle) []Run {
	var runs []Run
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			runs = append(runs, Run{Text: buf.String(), Style: base})
			buf.Reset()
		}
	}

	i := 0
	for i < len(s) {
		switch {
		case hasPrefixAt(s, i, "**") || hasPrefixAt(s, i, "__"):
			marker := s[i : i+2]
			if end := strings.Index(s[i+2:], marker); end >= 0 {
				flush()
				inner := s[i+2 : i+2+end]
				style := base
				style.Bold = true
				runs = append(runs, parseInlineStyled(inner, style)...)
				i += 2 + end + 2
				continue
			}

		case s[i] == '`':
			if end := strings.IndexByte(s[i+1:], '`'); end >= 0 {
				flush()
				style := base
				style.Code = true
				runs = append(runs, Run{Text: s[i+1 : i+1+end], Style: style})
				i += 1 + end + 1
				continue
			}

		case hasPrefixAt(s, i, "~~"):
			if end := strings.Index(s[i+2:], "~~"); end >= 0 {
				flush()
				style := base
				style.Strike = true
				runs = append(runs, parseInlineStyled(s[i+2:i+2+end], style)...)
				i += 2 + end + 2
				continue
			}

		case s[i] == '[':
			if close := strings.Index(s[i:], "]("); close >= 0 {
				urlEnd := strings.IndexByte(s[i+close+2:], ')')
				if urlEnd >= 0 {
					flush()
					text := s[i+1 : i+close]
					style := base
					style.Underline = true
					style.Link = true
					runs = append(runs, Run{Text: text, Style: style})
					i = i + close + 2 + urlEnd + 1
					continue
				}
			}

		case s[i] == '*' || s[i] == '_':
			marker := s[i]
			if end := strings.IndexByte(s[i+1:], marker); end >= 0 {
				flush()
				style := base
				style.Italic = true
				runs = append(runs, parseInlineStyled(s[i+1:i+1+end], style)...)
				i += 1 + end + 1
				continue
			}
		}

		buf.WriteByte(s[i])
		i++
	}
	flush()
	return runs
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return i+len(prefix) <= len(s) && s[i:i+len(prefix)] == prefix
}
