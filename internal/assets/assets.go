package assets

import "sync"

// DefaultStyleName is the name of the built-in CSS style.
const DefaultStyleName = "default"

// FallbackStyle is used when the default style cannot be loaded. It only
// guarantees the container renders as a visible block.
const FallbackStyle = `body{margin:0;background:#fff}
.markdown-body{display:block;min-height:10px;padding:16px;font-family:sans-serif}`

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded style by name using the default loader.
// Returns ErrStyleNotFound if the style does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// StyleNames lists the embedded style names.
func StyleNames() []string {
	return defaultLoader.StyleNames()
}

// DefaultStyleSheet returns the default style sheet. It is loaded on first
// use and constant afterwards.
var DefaultStyleSheet = sync.OnceValue(func() string {
	return loadOrFallback(defaultLoader, DefaultStyleName)
})

func loadOrFallback(loader StyleLoader, name string) string {
	css, err := loader.LoadStyle(name)
	if err != nil || css == "" {
		return FallbackStyle
	}
	return css
}
