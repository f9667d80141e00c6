package md2img

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2img/internal/process"
)

// rodLauncher launches Chrome through go-rod. Rod downloads a managed
// Chromium on first run when no binary is configured or found.
type rodLauncher struct {
	cfg browserConfig
}

func (l *rodLauncher) Launch(ctx context.Context) (browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ln := launcher.New().Headless(true)
	if l.cfg.bin != "" {
		ln = ln.Bin(l.cfg.bin)
	}
	if l.cfg.noSandbox {
		ln = ln.NoSandbox(true)
	}

	u, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceAcquisition, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		killLauncher(ln)
		return nil, fmt.Errorf("%w: %v", ErrResourceAcquisition, err)
	}

	return &rodBrowser{browser: b, launcher: ln}, nil
}

// rodBrowser is a connected Chrome instance.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Capture opens htmlPath in a new tab and screenshots the element matching
// opts.selector. The tab is closed on every path.
func (b *rodBrowser) Capture(ctx context.Context, htmlPath string, opts captureOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: creating page: %v", ErrCapture, err)
	}
	// Closed through the unbound page so a canceled ctx cannot leak the tab.
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: opts.scale,
	}); err != nil {
		return nil, captureErr(ctx, "setting viewport", err)
	}

	if err := p.Navigate(fileURL(htmlPath)); err != nil {
		return nil, captureErr(ctx, "loading page", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, captureErr(ctx, "loading page", err)
	}

	if err := waitForElement(ctx, p, opts); err != nil {
		return nil, err
	}

	res, err := p.Eval(elementRectJS, opts.selector)
	if err != nil {
		return nil, captureErr(ctx, "measuring container", err)
	}
	var rect *elementRect
	if err := res.Value.Unmarshal(&rect); err != nil {
		return nil, captureErr(ctx, "measuring container", err)
	}
	clip, err := captureClip(rect, opts.selector)
	if err != nil {
		return nil, err
	}

	// Element screenshots in rod crop in Go at scale 1, which cuts HD
	// captures in half. Clipping in Chrome keeps the device pixel ratio.
	req := proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      clip.X,
			Y:      clip.Y,
			Width:  clip.Width,
			Height: clip.Height,
			Scale:  1,
		},
		FromSurface:           true,
		CaptureBeyondViewport: true,
	}
	if opts.format == FormatJPEG {
		quality := jpegQuality
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = &quality
	}

	shot, err := req.Call(p)
	if err != nil {
		return nil, captureErr(ctx, "taking screenshot", err)
	}
	if len(shot.Data) == 0 {
		return nil, fmt.Errorf("%w: empty screenshot", ErrCapture)
	}
	return shot.Data, nil
}

// waitForElement waits up to opts.selectorTimeout for the container.
// The timeout's context is released as soon as the wait ends.
func waitForElement(ctx context.Context, p *rod.Page, opts captureOptions) error {
	tp := p.Timeout(opts.selectorTimeout)
	defer tp.CancelTimeout()

	if _, err := tp.Element(opts.selector); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", ErrRenderTargetNotFound, opts.selector, opts.selectorTimeout)
		}
		return captureErr(ctx, "locating container", err)
	}
	return nil
}

// Close disconnects and kills the browser process tree.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	killLauncher(b.launcher)
	return err
}

// killLauncher kills the launched process, its children, and removes the
// temporary user data directory.
func killLauncher(l *launcher.Launcher) {
	pid := l.PID()
	l.Kill()
	process.KillTree(pid)
	l.Cleanup()
}

// captureErr prefers the context error, so cancellation is reported as such
// rather than as a capture failure.
func captureErr(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %v", ErrCapture, step, err)
}

// Compile-time interface checks.
var (
	_ browserLauncher = (*rodLauncher)(nil)
	_ browser         = (*rodBrowser)(nil)
)
