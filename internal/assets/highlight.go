package assets

import (
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCSS generates the class-based CSS for a chroma theme. The output
// matches the markup goldmark-highlighting emits with class names enabled.
func HighlightCSS(theme string) (string, error) {
	style := styles.Get(theme)
	if style == nil {
		return "", fmt.Errorf("%w: %q", ErrHighlightTheme, theme)
	}

	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&sb, style); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlightTheme, err)
	}
	return sb.String(), nil
}
