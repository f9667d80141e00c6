package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed styles/*.css
var styleFS embed.FS

// highlightThemes pairs each embedded style with the chroma theme that fits
// its palette. Styles missing from this map get no highlight CSS.
var highlightThemes = map[string]string{
	"default": "github",
	"dark":    "monokai",
}

// EmbeddedLoader loads the built-in styles.
// Implements StyleLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle returns the embedded style followed by its highlight theme CSS.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := styleFS.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}

	theme, ok := highlightThemes[name]
	if !ok {
		return string(content), nil
	}
	highlight, err := HighlightCSS(theme)
	if err != nil {
		return "", err
	}
	return string(content) + "\n" + highlight, nil
}

// StyleNames lists the embedded style names, sorted.
func (e *EmbeddedLoader) StyleNames() []string {
	entries, err := fs.ReadDir(styleFS, "styles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".css"))
	}
	slices.Sort(names)
	return names
}

// Compile-time interface check.
var _ StyleLoader = (*EmbeddedLoader)(nil)
