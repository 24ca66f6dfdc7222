// Package markdown renders Markdown templates to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Options controls rendering.
type Options struct {
	// Unsafe passes raw HTML in the Markdown source through to the output.
	Unsafe bool
}

// DefaultOptions keeps raw HTML, which templates use for <img> attributes Markdown
// cannot express.
var DefaultOptions = Options{Unsafe: true}

func newEngine(opts Options) goldmark.Markdown {
	rendererOpts := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return goldmark.New(rendererOpts...)
}

// Render converts a Markdown body (front matter already removed) to HTML.
func Render(body []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := newEngine(opts).Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FirstHeading returns the text of the first level-one heading, or "".
func FirstHeading(body []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = headingText(h, body)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

func headingText(h *gmast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(h, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*gmast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
