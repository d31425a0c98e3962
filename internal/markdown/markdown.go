// Package markdown wraps goldmark for the rendering and structural queries
// the assembler and reviewer need.
package markdown

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// RenderHTML converts Markdown to an HTML fragment.
func RenderHTML(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := newMarkdown().Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Heading is one ATX or setext heading.
type Heading struct {
	Level int
	Text  string
	ID    string
}

// Headings returns the document headings in order.
func Headings(source []byte) []Heading {
	root := newMarkdown().Parser().Parse(text.NewReader(source))
	var out []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: plainText(h, source)}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		out = append(out, heading)
		return gmast.WalkSkipChildren, nil
	})
	return out
}

// plainText concatenates the text segments below n.
func plainText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// Slug builds an anchor from a heading title the way the auto heading ID
// option does for plain ASCII titles.
func Slug(title string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-':
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
