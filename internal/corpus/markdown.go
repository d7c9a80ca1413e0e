// Package corpus prepares source documents for ingestion: converting
// markdown to plain text for chunking and fetching policy document
// repositories from GitHub.
package corpus

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var markdownParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// IsMarkdown reports whether a filename looks like a markdown document.
func IsMarkdown(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// ExtractText returns the plain text of a document. Markdown sources are
// parsed and stripped of formatting so heading markers, link targets and
// code fences never pollute the embedding space; anything else is
// returned unchanged (extraction of binary formats happens upstream).
func ExtractText(filename, content string) string {
	if !IsMarkdown(filename) {
		return content
	}
	return stripMarkdown([]byte(content))
}

// MarkdownTitle returns the first top-level heading of a markdown
// document, or "" when none exists. Used as the document display title
// in preference to the filename-derived one.
func MarkdownTitle(content string) string {
	source := []byte(content)
	doc := markdownParser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}

// stripMarkdown walks the AST collecting text content, separating block
// nodes with blank lines so sentence-boundary chunking still works.
func stripMarkdown(source []byte) string {
	doc := markdownParser.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}
