package md2img

import "github.com/alnah/go-md2img/internal/pipeline"

// Section is one independently rendered part of a document.
type Section = pipeline.Section

// SplitContent partitions text at lines consisting exactly of splitter.
//
// With an empty splitter the whole text is one section, untrimmed. Otherwise
// each fragment is trimmed, empty fragments are dropped, and the remaining
// sections are indexed 0..N-1 in document order. A delimiter on the very
// first or last line has no line break on one side and is not matched.
func SplitContent(text, splitter string) []Section {
	return pipeline.SplitContent(text, splitter)
}
