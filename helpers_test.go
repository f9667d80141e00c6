package md2img

// Notes:
// - Fakes for the browser seam so pipeline logic is tested without Chrome
// - fakeBrowser reads the temp HTML file during Capture, which both records
//   what was rendered and proves the file exists while the browser needs it
// - fakeLauncher creates a fresh fakeBrowser per launch to observe reuse

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-md2img/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Internal Test Options
// ---------------------------------------------------------------------------

func withLauncher(l browserLauncher) Option {
	return func(c *converterConfig) {
		c.launcher = l
	}
}

func withHTMLConverter(conv pipeline.HTMLConverter) Option {
	return func(c *converterConfig) {
		c.htmlConverter = conv
	}
}

// ---------------------------------------------------------------------------
// Fake Browser
// ---------------------------------------------------------------------------

// captureFunc decides the outcome of one capture given the page HTML.
type captureFunc func(ctx context.Context, html string) ([]byte, error)

type fakeBrowser struct {
	capture captureFunc
	delay   time.Duration

	mu          sync.Mutex
	paths       []string
	htmls       []string
	opts        []captureOptions
	closed      int
	inFlight    int
	maxInFlight int
}

func (b *fakeBrowser) Capture(ctx context.Context, htmlPath string, opts captureOptions) ([]byte, error) {
	b.mu.Lock()
	b.inFlight++
	b.maxInFlight = max(b.maxInFlight, b.inFlight)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.inFlight--
		b.mu.Unlock()
	}()

	content, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, errors.Join(ErrCapture, err)
	}

	b.mu.Lock()
	b.paths = append(b.paths, htmlPath)
	b.htmls = append(b.htmls, string(content))
	b.opts = append(b.opts, opts)
	b.mu.Unlock()

	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if b.capture != nil {
		return b.capture(ctx, string(content))
	}
	return content, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *fakeBrowser) closeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// ---------------------------------------------------------------------------
// Fake Launcher
// ---------------------------------------------------------------------------

type fakeLauncher struct {
	capture captureFunc
	delay   time.Duration
	err     error

	mu       sync.Mutex
	browsers []*fakeBrowser
}

func (l *fakeLauncher) Launch(ctx context.Context) (browser, error) {
	if l.err != nil {
		return nil, l.err
	}
	b := &fakeBrowser{capture: l.capture, delay: l.delay}

	l.mu.Lock()
	l.browsers = append(l.browsers, b)
	l.mu.Unlock()
	return b, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.browsers)
}

func (l *fakeLauncher) last() *fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.browsers) == 0 {
		return nil
	}
	return l.browsers[len(l.browsers)-1]
}

// ---------------------------------------------------------------------------
// Mock HTML Converter
// ---------------------------------------------------------------------------

type mockHTMLConverter struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (m *mockHTMLConverter) ToHTML(ctx context.Context, content string) (string, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, content)
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return "<p>" + content + "</p>", nil
}

// newTestConverter builds a Converter on a fakeLauncher.
func newTestConverter(t testing.TB, launcher *fakeLauncher, opts ...Option) *Converter {
	t.Helper()
	conv, err := NewConverter(append([]Option{withLauncher(launcher)}, opts...)...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}
