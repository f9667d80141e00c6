// Package pipeline implements the text stages of the Markdown-to-image conversion.
//
// This package handles everything that happens before a browser is involved:
//   - Section splitting at a delimiter line (SplitContent)
//   - Section preprocessing (line endings, ==highlight== syntax)
//   - Markdown to HTML conversion via Goldmark
//   - Relative image path rewriting to file:// URLs
//   - Wrapping the fragment in a styled, self-contained HTML document
//
// Image capture is handled separately by the root md2img package using a
// headless browser. The document shell always wraps content in a single
// element carrying ContainerClass, which is what the capture stage locates
// and screenshots.
package pipeline
