package md2img

import (
	"time"

	"github.com/alnah/go-md2img/internal/assets"
	"github.com/alnah/go-md2img/internal/pipeline"
)

// converterConfig holds settings shared by Converter and ImageCapturer.
type converterConfig struct {
	timeout         time.Duration
	selectorTimeout time.Duration
	styleInput      string
	assetPath       string
	backend         string
	browserBin      string
	noSandbox       bool
	concurrency     int

	// Test seams.
	launcher      browserLauncher
	htmlConverter pipeline.HTMLConverter
}

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:         defaultTimeout,
		selectorTimeout: defaultSelectorTimeout,
		concurrency:     1,
	}
}

// Option configures a Converter or an ImageCapturer.
type Option func(*converterConfig)

// WithTimeout bounds the rendering and capture of each section.
// Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithSelectorTimeout bounds the wait for the snapshot container.
func WithSelectorTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		if d > 0 {
			c.selectorTimeout = d
		}
	}
}

// WithStyle sets the style sheet: an embedded or custom style name, a path
// to a CSS file, or inline CSS.
func WithStyle(style string) Option {
	return func(c *converterConfig) {
		c.styleInput = style
	}
}

// StyleNames lists the embedded style names accepted by WithStyle.
func StyleNames() []string {
	return assets.StyleNames()
}

// WithAssetPath sets a directory holding custom styles under styles/.
// Custom styles take precedence over embedded ones with the same name.
func WithAssetPath(path string) Option {
	return func(c *converterConfig) {
		c.assetPath = path
	}
}

// WithBackend selects the browser automation library ("rod" or "chromedp").
func WithBackend(name string) Option {
	return func(c *converterConfig) {
		c.backend = name
	}
}

// WithBrowserBin sets the Chrome binary. Defaults to ROD_BROWSER_BIN, then
// the backend's own lookup.
func WithBrowserBin(path string) Option {
	return func(c *converterConfig) {
		c.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, as needed in most containers.
func WithNoSandbox(disable bool) Option {
	return func(c *converterConfig) {
		c.noSandbox = disable
	}
}

// WithConcurrency renders up to n sections at once, each in its own tab of
// the converter's browser. Output order does not change. Values are clamped
// to [1, MaxConcurrency].
func WithConcurrency(n int) Option {
	return func(c *converterConfig) {
		c.concurrency = min(max(n, 1), MaxConcurrency)
	}
}
