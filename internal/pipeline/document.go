package pipeline

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// ContainerClass marks the single element that wraps a section's HTML.
// The capture stage screenshots exactly this element.
const ContainerClass = "markdown-body"

// ContainerSelector is the CSS selector for the element marked with ContainerClass.
const ContainerSelector = "." + ContainerClass

// documentTemplate is the minimal self-contained shell around one section.
// Arguments: style sheet, container class, HTML fragment.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>%s</style>
</head>
<body>
<div class="%s">
%s
</div>
</body>
</html>`

// DocumentRenderer turns a Markdown section into a standalone HTML document.
// It is immutable; the With* methods return modified copies.
type DocumentRenderer struct {
	preprocessor SectionPreprocessor
	converter    HTMLConverter
	css          string
	sourceDir    string
}

// NewDocumentRenderer creates a renderer that styles every document with css.
func NewDocumentRenderer(converter HTMLConverter, css string) *DocumentRenderer {
	return &DocumentRenderer{
		preprocessor: &MarkdownPreprocessor{},
		converter:    converter,
		css:          css,
	}
}

// WithSourceDir returns a copy that resolves relative image paths against dir.
func (r *DocumentRenderer) WithSourceDir(dir string) *DocumentRenderer {
	cp := *r
	cp.sourceDir = dir
	return &cp
}

// WithExtraCSS returns a copy whose style sheet has css appended, so it
// overrides the base rules.
func (r *DocumentRenderer) WithExtraCSS(css string) *DocumentRenderer {
	if css == "" {
		return r
	}
	cp := *r
	cp.css = r.css + "\n" + css
	return &cp
}

// CSS returns the style sheet embedded in every rendered document.
func (r *DocumentRenderer) CSS() string {
	return r.css
}

// Render converts markdown and wraps it in the document shell.
// Malformed Markdown never fails: if conversion errors, the raw text is
// shown escaped inside <pre>. Only context cancellation is returned.
func (r *DocumentRenderer) Render(ctx context.Context, markdown string) (string, error) {
	content := r.preprocessor.PreprocessSection(ctx, markdown)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fragment, err := r.converter.ToHTML(ctx, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		fragment = "<pre>" + html.EscapeString(markdown) + "</pre>"
	}

	if r.sourceDir != "" {
		// Best effort: an unparsable fragment keeps its original paths.
		if rewritten, err := RewriteRelativePaths(fragment, r.sourceDir); err == nil {
			fragment = rewritten
		}
	}

	fragment = RestoreMarks(fragment)

	return fmt.Sprintf(documentTemplate, sanitizeCSS(r.css), ContainerClass, fragment), nil
}

// sanitizeCSS escapes "</" so style content cannot close the <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
