// Package md2img converts Markdown into PNG or JPEG snapshots.
//
// A document is optionally split into sections at a delimiter line. Each
// section is converted to HTML with goldmark, wrapped in a styled page, and
// captured by a headless Chrome as exactly the box of its content container.
//
// Basic usage:
//
//	conv, err := md2img.NewConverter()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, md2img.Input{
//		Markdown: "# Intro\n\n---\n\n# Details",
//		ConversionOptions: md2img.ConversionOptions{
//			Format:   md2img.FormatPNG,
//			Splitter: "---",
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, img := range result.Images {
//		_ = os.WriteFile(fmt.Sprintf("slide_%d.png", img.Index+1), img.Data, 0o644)
//	}
//
// Resolution controls the device pixel ratio: ResolutionStandard captures
// one pixel per CSS pixel, ResolutionHD (the default) two.
//
// Browser selection:
//
// The default backend is go-rod, which downloads Chromium when no browser
// is found. WithBackend("chromedp") uses chromedp with an installed Chrome.
// Both honor ROD_BROWSER_BIN and, for containers, ROD_NO_SANDBOX=1 or CI=true.
//
// For parallel processing of many documents, use ConverterPool:
//
//	pool := md2img.NewConverterPool(4)
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
package md2img
