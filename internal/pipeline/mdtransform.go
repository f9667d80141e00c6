package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Highlight placeholders live in the Unicode Private Use Area so goldmark
// passes them through untouched; RestoreMarks turns them into <mark> tags.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
)

// SectionPreprocessor prepares one section's Markdown before HTML conversion.
type SectionPreprocessor interface {
	PreprocessSection(ctx context.Context, content string) string
}

// MarkdownPreprocessor normalizes a section and rewrites ==text== highlights.
// Fenced code blocks and inline code spans are left as written.
type MarkdownPreprocessor struct{}

// PreprocessSection applies all section transformations. A canceled context
// returns the content unchanged; the caller checks ctx afterwards.
func (p *MarkdownPreprocessor) PreprocessSection(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	lines := strings.Split(NormalizeLineEndings(content), "\n")

	// Newlines inside fenced code are swapped for fenceNewline so the
	// blank-line compression below leaves code untouched.
	var b strings.Builder
	b.Grow(len(content))
	var fence string
	for i, line := range lines {
		switch {
		case fence != "":
			if closesFence(line, fence) {
				fence = ""
			}
			b.WriteString(line)
		case openingFence(line) != "":
			fence = openingFence(line)
			b.WriteString(line)
		default:
			b.WriteString(highlightLine(line))
		}
		if i < len(lines)-1 {
			if fence != "" {
				b.WriteString(fenceNewline)
			} else {
				b.WriteByte('\n')
			}
		}
	}

	out := multipleBlankLines.ReplaceAllString(b.String(), "\n\n")
	return strings.ReplaceAll(out, fenceNewline, "\n")
}

const fenceNewline = "\uE002"

// openingFence returns the backtick or tilde run that opens a fenced code
// block on line, or "" if line is not a fence.
func openingFence(line string) string {
	trimmed, ok := trimFenceIndent(line)
	if !ok || trimmed == "" || (trimmed[0] != '`' && trimmed[0] != '~') {
		return ""
	}
	n := len(trimmed) - len(strings.TrimLeft(trimmed, trimmed[:1]))
	if n < 3 {
		return ""
	}
	// A backtick fence's info string may not contain backticks.
	if trimmed[0] == '`' && strings.Contains(trimmed[n:], "`") {
		return ""
	}
	return trimmed[:n]
}

// closesFence reports whether line ends the block opened by fence.
func closesFence(line, fence string) bool {
	trimmed, ok := trimFenceIndent(line)
	if !ok {
		return false
	}
	run := strings.TrimLeft(trimmed, fence[:1])
	return len(trimmed)-len(run) >= len(fence) && strings.TrimSpace(run) == ""
}

// trimFenceIndent strips up to three leading spaces. More indentation
// makes an indented code line, not a fence.
func trimFenceIndent(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	return trimmed, len(line)-len(trimmed) <= 3
}

// highlightLine replaces ==text== pairs whose delimiters sit outside
// inline code spans.
func highlightLine(line string) string {
	// A line of only '=' is a setext heading underline.
	if !strings.Contains(line, "==") || strings.TrimRight(strings.TrimSpace(line), "=") == "" {
		return line
	}
	spans := codeSpans(line)
	inCode := func(i int) bool {
		for _, s := range spans {
			if i >= s[0] && i < s[1] {
				return true
			}
		}
		return false
	}
	nextDelim := func(from int) int {
		for i := from; i+1 < len(line); i++ {
			if line[i] == '=' && line[i+1] == '=' && !inCode(i) && !inCode(i+1) {
				return i
			}
		}
		return -1
	}

	var b strings.Builder
	pos := 0
	for {
		open := nextDelim(pos)
		if open < 0 {
			break
		}
		closing := nextDelim(open + 2)
		if closing < 0 {
			break
		}
		b.WriteString(line[pos:open])
		b.WriteString(MarkStartPlaceholder)
		b.WriteString(line[open+2 : closing])
		b.WriteString(MarkEndPlaceholder)
		pos = closing + 2
	}
	b.WriteString(line[pos:])
	return b.String()
}

// codeSpans returns the [start, end) byte ranges of backtick code spans
// in line. A run of n backticks is closed by the next run of exactly n.
func codeSpans(line string) [][2]int {
	var spans [][2]int
	i := 0
	for i < len(line) {
		if line[i] != '`' || (i > 0 && line[i-1] == '\\') {
			i++
			continue
		}
		n := backtickRun(line, i)
		end := -1
		for j := i + n; j < len(line); {
			if line[j] != '`' {
				j++
				continue
			}
			m := backtickRun(line, j)
			if m == n {
				end = j + m
				break
			}
			j += m
		}
		if end < 0 {
			i += n
			continue
		}
		spans = append(spans, [2]int{i, end})
		i = end
	}
	return spans
}

func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// NormalizeLineEndings converts \r\n and \r to \n so that delimiter lines
// match regardless of the editor that saved the document.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// RestoreMarks converts highlight placeholders in rendered HTML to <mark> tags.
func RestoreMarks(htmlContent string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(htmlContent, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
