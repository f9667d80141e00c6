package md2img

import (
	"fmt"
	"strings"
	"time"
)

// Format is the encoding of a snapshot.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// DefaultFormat is used when no format is given.
const DefaultFormat = FormatPNG

// ParseFormat parses a format name, case-insensitively. An empty string is
// DefaultFormat and "jpg" is accepted for FormatJPEG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultFormat, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: %q (must be png or jpeg)", ErrInvalidFormat, s)
}

// Resolution selects the device pixel ratio of a snapshot.
type Resolution string

// Supported resolutions.
const (
	ResolutionStandard Resolution = "standard"
	ResolutionHD       Resolution = "hd"
)

// DefaultResolution is used when no or an unknown resolution is given.
const DefaultResolution = ResolutionHD

// ParseResolution parses a resolution name, case-insensitively.
// Anything but "standard" is DefaultResolution.
func ParseResolution(s string) Resolution {
	if strings.EqualFold(strings.TrimSpace(s), string(ResolutionStandard)) {
		return ResolutionStandard
	}
	return DefaultResolution
}

// ScaleFactor returns the device pixel ratio for r: 1 for standard, 2 otherwise.
// Snapshot pixel dimensions are the container's CSS box size times this factor.
func ScaleFactor(r Resolution) float64 {
	if strings.EqualFold(string(r), string(ResolutionStandard)) {
		return 1
	}
	return 2
}

// Backend selects the browser automation library.
type Backend string

// Supported backends.
const (
	BackendRod      Backend = "rod"
	BackendChromedp Backend = "chromedp"
)

// ParseBackend parses a backend name. An empty string is BackendRod.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BackendRod):
		return BackendRod, nil
	case string(BackendChromedp):
		return BackendChromedp, nil
	}
	return "", fmt.Errorf("%w: %q (must be rod or chromedp)", ErrInvalidBackend, s)
}

// ConversionOptions are the per-run snapshot settings.
type ConversionOptions struct {
	Format     Format     // png (default) or jpeg
	Resolution Resolution // standard or hd (default)
	Splitter   string     // delimiter line; empty renders the whole text as one image
}

// normalize validates the format and fills in defaults.
func (o ConversionOptions) normalize() (ConversionOptions, error) {
	format, err := ParseFormat(string(o.Format))
	if err != nil {
		return ConversionOptions{}, err
	}
	return ConversionOptions{
		Format:     format,
		Resolution: ParseResolution(string(o.Resolution)),
		Splitter:   o.Splitter,
	}, nil
}

// Input contains conversion parameters.
type Input struct {
	Markdown string // Markdown content (required)
	ConversionOptions

	SourceDir string       // resolves relative image paths (optional)
	CSS       string       // appended to the converter style (optional)
	Progress  ProgressFunc // called after each section (optional)
}

// Progress reports how many sections of a run are done.
type Progress struct {
	Current int // sections completed, 1-based
	Total   int
}

func (p Progress) String() string {
	return fmt.Sprintf("Processing section %d/%d", p.Current, p.Total)
}

// ProgressFunc observes a conversion run. Calls are serialized and Current
// strictly increases, even when sections render concurrently.
type ProgressFunc func(Progress)

// Image is one encoded snapshot.
type Image struct {
	Index  int // 0-based section index
	Format Format
	Data   []byte
}

// ConvertResult holds the snapshots of a run, ordered by section index.
type ConvertResult struct {
	Images []Image
}

// Timeouts and limits.
const (
	defaultTimeout         = 30 * time.Second
	defaultSelectorTimeout = 10 * time.Second

	// MaxConcurrency caps concurrent sections per converter.
	MaxConcurrency = 16
)
