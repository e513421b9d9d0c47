package generator

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StripMarkdown renders Markdown-ish model output down to plain text.
// Models regularly wrap posts in headings, emphasis or code fences even when
// told not to; a post must go out as bare prose.
func StripMarkdown(src string) string {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			// a fully fenced answer still carries the post text
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					b.Write(t.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := b.String()
	// collapse the runs of blank lines block joining leaves behind
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

// ParseThemeLines extracts usable theme candidates from a brainstorm
// response: one theme per line, list markers stripped, short fragments
// dropped.
func ParseThemeLines(raw string) []string {
	var themes []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Trim(line, "・- \t0123456789.）)」「")
		line = strings.TrimSpace(line)
		if len([]rune(line)) > 3 {
			themes = append(themes, line)
		}
	}
	return themes
}
