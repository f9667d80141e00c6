package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// imageFlags holds snapshot flags.
type imageFlags struct {
	format     string
	resolution string
	splitter   string
	splitDir   string
}

// browserFlags holds headless browser flags.
type browserFlags struct {
	backend         string
	bin             string
	noSandbox       bool
	timeout         string
	selectorTimeout string
	concurrency     int
}

// assetFlags holds styling flags.
type assetFlags struct {
	style     string // name, CSS file path or inline CSS
	assetPath string // custom asset directory
}

// convertFlags holds all flags for the conversion commands.
type convertFlags struct {
	common  commonFlags
	output  string
	workers int
	image   imageFlags
	browser browserFlags
	assets  assetFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addImageFlags adds snapshot flags to a FlagSet.
func addImageFlags(fs *flag.FlagSet, f *imageFlags, withFormat bool) {
	if withFormat {
		fs.StringVarP(&f.format, "format", "f", "", "image format: png, jpeg")
	}
	fs.StringVarP(&f.resolution, "resolution", "r", "", "resolution: standard, hd")
	fs.StringVarP(&f.splitter, "splitter", "s", "", "delimiter line that starts a new image")
	fs.StringVar(&f.splitDir, "split-dir", "", "folder pattern for split images ({name}, {format})")
}

// addBrowserFlags adds headless browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.backend, "backend", "", "browser backend: rod, chromedp")
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome/Chromium binary path")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-section timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.selectorTimeout, "selector-timeout", "", "wait for the content container (e.g., 10s)")
	fs.IntVar(&f.concurrency, "concurrency", 0, "sections rendered at once per file (0 = 1)")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name, file path or inline CSS")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// parseConvertFlags parses the flags of a conversion command and returns
// positional args. The png and jpeg commands fix the format and have no
// --format flag.
func parseConvertFlags(name string, args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "files converted in parallel (0 = auto)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addImageFlags(fs, &f.image, name == cmdConvert)
	addBrowserFlags(fs, &f.browser)
	addAssetFlags(fs, &f.assets)

	fs.Usage = func() { printConvertUsage(usage, name) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	switch name {
	case cmdPNG:
		f.image.format = "png"
	case cmdJPEG:
		f.image.format = "jpeg"
	}

	return f, fs.Args(), nil
}
