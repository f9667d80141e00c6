package pipeline

import "strings"

// Section is one independently renderable piece of a Markdown document.
type Section struct {
	Content string // Markdown body, trimmed when a splitter is used
	Index   int    // 0-based position among non-empty sections
}

// SplitContent divides text into ordered sections at every line that
// consists of exactly splitter.
//
// With an empty splitter the whole text is returned untouched as section 0.
// Otherwise fragments are trimmed, empty ones are dropped, and the survivors
// are numbered densely in document order. A splitter on the first or last
// line has no surrounding newline and therefore does not match.
func SplitContent(text, splitter string) []Section {
	if splitter == "" {
		return []Section{{Content: text, Index: 0}}
	}

	fragments := strings.Split(text, "\n"+splitter+"\n")
	sections := make([]Section, 0, len(fragments))
	for _, fragment := range fragments {
		content := strings.TrimSpace(fragment)
		if content == "" {
			continue
		}
		sections = append(sections, Section{Content: content, Index: len(sections)})
	}
	return sections
}
