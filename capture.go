package md2img

import (
	"context"
	"fmt"

	"github.com/alnah/go-md2img/internal/fileutil"
	"github.com/alnah/go-md2img/internal/pipeline"
)

// ImageCapturer snapshots a complete HTML document. Every Capture launches
// its own browser and closes it before returning. Use a Converter to reuse
// one browser across many snapshots.
type ImageCapturer struct {
	cfg      converterConfig
	launcher browserLauncher
}

// NewImageCapturer creates an ImageCapturer. Style options are ignored since
// the document is captured as given.
func NewImageCapturer(opts ...Option) (*ImageCapturer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	launcher, err := cfg.browserLauncher()
	if err != nil {
		return nil, err
	}
	return &ImageCapturer{cfg: cfg, launcher: launcher}, nil
}

// Capture renders html and returns the encoded snapshot of its
// .markdown-body element. The document must contain that element, or
// Capture fails with ErrRenderTargetNotFound once the selector timeout
// expires.
func (c *ImageCapturer) Capture(ctx context.Context, html string, opts ConversionOptions) (data []byte, err error) {
	opts, err = opts.normalize()
	if err != nil {
		return nil, err
	}

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	b, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing browser: %w", closeErr)
		}
	}()

	return captureDocument(ctx, b, html, c.cfg.captureOptions(opts))
}

// captureDocument writes html to a temporary file for the duration of one
// capture. The file is removed on every path.
func captureDocument(ctx context.Context, b browser, html string, opts captureOptions) ([]byte, error) {
	path, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	defer cleanup()

	return b.Capture(ctx, path, opts)
}

// captureOptions derives the browser settings for normalized options.
func (c converterConfig) captureOptions(o ConversionOptions) captureOptions {
	return captureOptions{
		format:          o.Format,
		scale:           ScaleFactor(o.Resolution),
		selector:        pipeline.ContainerSelector,
		selectorTimeout: c.selectorTimeout,
	}
}

// browserLauncher returns the injected launcher or the one for the
// configured backend.
func (c converterConfig) browserLauncher() (browserLauncher, error) {
	if c.launcher != nil {
		return c.launcher, nil
	}
	backend, err := ParseBackend(c.backend)
	if err != nil {
		return nil, err
	}
	return newLauncher(backend, browserConfig{bin: c.browserBin, noSandbox: c.noSandbox}), nil
}
