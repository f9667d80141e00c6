package md2img

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromedpLauncher launches Chrome through chromedp. Unlike rod it never
// downloads a browser: Chrome must be installed or set with WithBrowserBin.
type chromedpLauncher struct {
	cfg browserConfig
}

func (l *chromedpLauncher) Launch(ctx context.Context) (browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("headless", true),
	)
	if l.cfg.bin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.cfg.bin))
	}
	if l.cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	// The browser outlives the launching call, so it hangs off Background.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrResourceAcquisition, err)
	}

	return &chromedpBrowser{
		browserCtx:  browserCtx,
		allocCancel: allocCancel,
	}, nil
}

// chromedpBrowser is a running Chrome instance owned by a chromedp context.
type chromedpBrowser struct {
	browserCtx  context.Context
	allocCancel context.CancelFunc
}

// Capture opens htmlPath in a new tab and screenshots the element matching
// opts.selector. Canceling ctx closes the tab.
func (b *chromedpBrowser) Capture(ctx context.Context, htmlPath string, opts captureOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight, chromedp.EmulateScale(opts.scale)),
		chromedp.Navigate(fileURL(htmlPath)),
	); err != nil {
		return nil, captureErr(ctx, "loading page", err)
	}

	waitCtx, waitCancel := context.WithTimeout(tabCtx, opts.selectorTimeout)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(opts.selector, chromedp.ByQuery))
	waitCancel()
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrRenderTargetNotFound, opts.selector, opts.selectorTimeout)
		}
		return nil, captureErr(ctx, "locating container", err)
	}

	// A pointer target lets a null result decode instead of failing.
	var rect *elementRect
	expr := fmt.Sprintf("(%s)(%q)", elementRectJS, opts.selector)
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(expr, &rect)); err != nil {
		return nil, captureErr(ctx, "measuring container", err)
	}
	clip, err := captureClip(rect, opts.selector)
	if err != nil {
		return nil, err
	}

	var buf []byte
	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{
				X:      clip.X,
				Y:      clip.Y,
				Width:  clip.Width,
				Height: clip.Height,
				Scale:  1,
			}).
			WithFromSurface(true).
			WithCaptureBeyondViewport(true)
		if opts.format == FormatJPEG {
			params = params.WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(jpegQuality)
		}

		var err error
		buf, err = params.Do(ctx)
		return err
	})); err != nil {
		return nil, captureErr(ctx, "taking screenshot", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty screenshot", ErrCapture)
	}
	return buf, nil
}

// Close shuts the browser down and waits for the process to exit.
func (b *chromedpBrowser) Close() error {
	err := chromedp.Cancel(b.browserCtx)
	b.allocCancel()
	return err
}

// Compile-time interface checks.
var (
	_ browserLauncher = (*chromedpLauncher)(nil)
	_ browser         = (*chromedpBrowser)(nil)
)
