package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup flattens EHR note markup to plain text. Exports frequently wrap
// note bodies in HTML; only the visible text is evidence. Script, style and
// similar non-content subtrees are dropped entirely. On a parse failure the
// input passes through unchanged rather than losing the record.
func StripMarkup(input string) string {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return input
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String()
}
