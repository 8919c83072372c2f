package frontmatter

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// firstHeading returns the text of the first heading in a Markdown body,
// or "" when the body has none. Used as the title fallback for documents
// whose header omits one.
func firstHeading(body []byte) string {
	root := parseBody(body)

	var heading string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if _, ok := n.(*gmast.Heading); ok {
			heading = nodeText(n, body)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(heading)
}

// firstParagraph returns the plain text of the first paragraph, truncated
// to maxRunes when positive. Used as the excerpt fallback for description
// fields.
func firstParagraph(body []byte, maxRunes int) string {
	root := parseBody(body)

	var para string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if _, ok := n.(*gmast.Paragraph); ok {
			para = nodeText(n, body)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})

	para = strings.Join(strings.Fields(para), " ")
	if maxRunes > 0 {
		runes := []rune(para)
		if len(runes) > maxRunes {
			para = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return para
}

func parseBody(body []byte) gmast.Node {
	md := goldmark.New()
	return md.Parser().Parse(text.NewReader(body))
}

// nodeText collects the raw text segments beneath a node.
func nodeText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := child.(*gmast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}
