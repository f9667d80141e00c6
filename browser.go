package md2img

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Rendering surface constants.
const (
	viewportWidth  = 1200
	viewportHeight = 800
	jpegQuality    = 90
)

// browserLauncher starts a headless browser.
type browserLauncher interface {
	// Launch returns a connected browser or an error wrapping ErrResourceAcquisition.
	Launch(ctx context.Context) (browser, error)
}

// browser captures snapshots of local HTML files. Capture is safe for
// concurrent use; each call works in its own tab.
type browser interface {
	Capture(ctx context.Context, htmlPath string, opts captureOptions) ([]byte, error)
	Close() error
}

// captureOptions describes one snapshot.
type captureOptions struct {
	format          Format
	scale           float64
	selector        string
	selectorTimeout time.Duration
}

// browserConfig configures a launcher.
type browserConfig struct {
	bin       string
	noSandbox bool
}

// withEnv fills unset fields from ROD_BROWSER_BIN, ROD_NO_SANDBOX and CI.
func (c browserConfig) withEnv() browserConfig {
	if c.bin == "" {
		c.bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" {
		c.noSandbox = true
	}
	return c
}

// newLauncher returns the launcher for backend.
func newLauncher(backend Backend, cfg browserConfig) browserLauncher {
	cfg = cfg.withEnv()
	if backend == BackendChromedp {
		return &chromedpLauncher{cfg: cfg}
	}
	return &rodLauncher{cfg: cfg}
}

// elementRect is an element box in CSS pixels, relative to the document.
type elementRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// elementRectJS is a function of one selector argument that returns the
// document-relative box of the matching element, or null.
const elementRectJS = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) { return null; }
	const r = el.getBoundingClientRect();
	return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
}`

// snap rounds the box outward to whole CSS pixels, so the captured bitmap
// is exactly scale times the box at every resolution.
func (r elementRect) snap() elementRect {
	x, y := math.Floor(r.X), math.Floor(r.Y)
	return elementRect{
		X:      x,
		Y:      y,
		Width:  math.Ceil(r.X+r.Width) - x,
		Height: math.Ceil(r.Y+r.Height) - y,
	}
}

func (r elementRect) empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// captureClip turns a measured box into the screenshot clip. A nil box
// means elementRectJS found no element.
func captureClip(rect *elementRect, selector string) (elementRect, error) {
	if rect == nil {
		return elementRect{}, fmt.Errorf("%w: %s", ErrRenderTargetNotFound, selector)
	}
	if rect.empty() {
		return elementRect{}, fmt.Errorf("%w: %s has no visible box", ErrRenderTargetNotFound, selector)
	}
	return rect.snap(), nil
}

// fileURL converts an absolute path to a file:// URL.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // windows drive letter
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
