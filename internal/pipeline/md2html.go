package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates Markdown to HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter converts a Markdown body into an HTML fragment.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter renders GitHub-flavored Markdown with goldmark.
// It is safe for concurrent use.
type GoldmarkConverter struct {
	md   goldmark.Markdown
	bufs sync.Pool
}

// snapshotExtensions are the Markdown features a section may use.
// Raw HTML stays disabled; ==highlight== is handled with placeholders.
func snapshotExtensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		extension.DefinitionList,
		extension.CJK, // no stray spaces where a line break splits CJK text
		highlighting.NewHighlighting(
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		),
	}
}

// NewGoldmarkConverter creates a converter with GFM, footnotes, definition
// lists and class-based code highlighting. Single newlines become <br />.
func NewGoldmarkConverter() *GoldmarkConverter {
	c := &GoldmarkConverter{
		md: goldmark.New(
			goldmark.WithExtensions(snapshotExtensions()...),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
	}
	c.bufs.New = func() any { return new(bytes.Buffer) }
	return c
}

// ToHTML converts content to an HTML fragment without <html> or <body>.
// goldmark cannot be interrupted, so a canceled ctx returns immediately
// while the render finishes in the background.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type rendered struct {
		fragment string
		err      error
	}
	done := make(chan rendered, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- rendered{err: fmt.Errorf("%w: panic: %v", ErrHTMLConversion, r)}
			}
		}()

		buf := c.bufs.Get().(*bytes.Buffer)
		buf.Reset()
		defer c.bufs.Put(buf)

		if err := c.md.Convert([]byte(content), buf); err != nil {
			done <- rendered{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- rendered{fragment: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.fragment, r.err
	}
}
