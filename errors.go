package md2img

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	// ErrEmptyInput indicates the Markdown is empty, whitespace only, or
	// splits into no non-empty section. Nothing is rendered.
	ErrEmptyInput = errors.New("markdown content is empty")

	// ErrInvalidFormat indicates an image format other than png or jpeg.
	ErrInvalidFormat = errors.New("invalid image format")

	// ErrRenderTargetNotFound indicates the snapshot container never appeared
	// in the page within the selector timeout, or has no visible box.
	ErrRenderTargetNotFound = errors.New("render target not found")

	// ErrCapture indicates a page, load, screenshot or encoding failure.
	ErrCapture = errors.New("capture failed")

	// ErrResourceAcquisition indicates the browser could not be launched or connected.
	ErrResourceAcquisition = errors.New("failed to acquire browser")

	// ErrConverterClosed indicates Convert was called after Close.
	ErrConverterClosed = errors.New("converter is closed")

	// Construction errors.
	ErrInvalidBackend   = errors.New("invalid browser backend")
	ErrStyleNotFound    = errors.New("style not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// SectionError reports which section a conversion run failed on.
// Index is the 0-based section index.
type SectionError struct {
	Index int
	Err   error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %d: %v", e.Index+1, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}
