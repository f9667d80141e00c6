package md2img

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-md2img/internal/assets"
	"github.com/alnah/go-md2img/internal/fileutil"
	"github.com/alnah/go-md2img/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.HTMLConverter       = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.SectionPreprocessor = (*pipeline.MarkdownPreprocessor)(nil)
)

// Converter turns Markdown into one snapshot per section.
// Create with NewConverter, use Convert for conversion, and Close when done.
//
// A Converter owns one headless browser, launched on the first Convert and
// reused afterwards. Convert calls on the same Converter are serialized; use
// a ConverterPool to convert several documents in parallel.
type Converter struct {
	cfg      converterConfig
	renderer *pipeline.DocumentRenderer
	launcher browserLauncher

	mu      sync.Mutex
	browser browser
	closed  bool
}

// NewConverter creates a Converter. The browser is not started until the
// first Convert.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	launcher, err := cfg.browserLauncher()
	if err != nil {
		return nil, err
	}

	css, err := resolveStyle(cfg)
	if err != nil {
		return nil, err
	}

	htmlConverter := cfg.htmlConverter
	if htmlConverter == nil {
		htmlConverter = pipeline.NewGoldmarkConverter()
	}

	return &Converter{
		cfg:      cfg,
		renderer: pipeline.NewDocumentRenderer(htmlConverter, css),
		launcher: launcher,
	}, nil
}

// Convert splits input.Markdown, renders every section and captures it.
// Images come back in section order. A failing section aborts the run with
// a *SectionError and no partial result.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	opts, err := input.ConversionOptions.normalize()
	if err != nil {
		return nil, err
	}

	text := pipeline.NormalizeLineEndings(input.Markdown)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	sections := SplitContent(text, opts.Splitter)
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: no section left after splitting on %q", ErrEmptyInput, opts.Splitter)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConverterClosed
	}

	b, err := c.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	renderer := c.renderer.WithSourceDir(input.SourceDir).WithExtraCSS(input.CSS)
	images, err := c.convertSections(ctx, b, renderer, sections, opts, input.Progress)
	if err != nil {
		// The browser may be wedged; the next run starts a fresh one.
		if errors.Is(err, ErrCapture) {
			c.discardBrowser()
		}
		return nil, err
	}

	return &ConvertResult{Images: images}, nil
}

// convertSections runs the sections through render and capture, at most
// cfg.concurrency at a time. The first failure cancels the others.
func (c *Converter) convertSections(
	ctx context.Context,
	b browser,
	renderer *pipeline.DocumentRenderer,
	sections []Section,
	opts ConversionOptions,
	progress ProgressFunc,
) ([]Image, error) {
	images := make([]Image, len(sections))
	capOpts := c.cfg.captureOptions(opts)

	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.concurrency)

	for _, s := range sections {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			// Worker goroutines are outside Convert's recover.
			defer func() {
				if r := recover(); r != nil {
					err = &SectionError{Index: s.Index, Err: fmt.Errorf("internal error: %v", r)}
				}
			}()
			if gctx.Err() != nil {
				return nil
			}
			data, err := c.convertSection(gctx, b, renderer, s.Content, capOpts)
			if err != nil {
				return &SectionError{Index: s.Index, Err: err}
			}
			images[s.Index] = Image{Index: s.Index, Format: opts.Format, Data: data}

			if progress != nil {
				progressMu.Lock()
				defer progressMu.Unlock()
				done++
				progress(Progress{Current: done, Total: len(sections)})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// convertSection renders and captures one section within cfg.timeout.
func (c *Converter) convertSection(ctx context.Context, b browser, renderer *pipeline.DocumentRenderer, content string, opts captureOptions) ([]byte, error) {
	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	html, err := renderer.Render(ctx, content)
	if err != nil {
		return nil, err
	}
	return captureDocument(ctx, b, html, opts)
}

// ensureBrowser returns the running browser, launching it if needed.
// Callers hold c.mu.
func (c *Converter) ensureBrowser(ctx context.Context) (browser, error) {
	if c.browser != nil {
		return c.browser, nil
	}
	b, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	c.browser = b
	return b, nil
}

// discardBrowser closes the browser and forgets it. Callers hold c.mu.
func (c *Converter) discardBrowser() {
	if c.browser == nil {
		return
	}
	_ = c.browser.Close()
	c.browser = nil
}

// CSS returns the style sheet applied to every section.
func (c *Converter) CSS() string {
	return c.renderer.CSS()
}

// Close releases the headless browser. Further Convert calls fail with
// ErrConverterClosed. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
// Without a style or an asset path, the embedded default is used.
func resolveStyle(cfg converterConfig) (string, error) {
	input := cfg.styleInput

	// CSS content? (contains {, checked first since CSS may hold slashes)
	if fileutil.IsCSS(input) {
		return input, nil
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("%w: loading style file %q: %v", ErrStyleNotFound, input, err)
		}
		return string(content), nil
	}

	if input == "" && cfg.assetPath == "" {
		return assets.DefaultStyleSheet(), nil
	}
	if input == "" {
		input = assets.DefaultStyleName
	}

	resolver, err := assets.NewAssetResolver(cfg.assetPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}

	css, err := resolver.LoadStyle(input)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) || errors.Is(err, assets.ErrInvalidAssetName) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, input)
		}
		return "", fmt.Errorf("loading style %q: %w", input, err)
	}
	return css, nil
}
