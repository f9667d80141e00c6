package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/config"
	"github.com/alnah/go-md2img/internal/fileutil"
	"github.com/alnah/go-md2img/internal/hints"
)

// File permission constants.
const (
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrReadMarkdown = errors.New("failed to read markdown file")
	ErrWriteImage   = errors.New("failed to write image file")
)

// ConversionResult holds the outcome of a single file conversion.
type ConversionResult struct {
	InputPath string
	Outputs   []string
	Err       error
	Duration  time.Duration
}

// convertBatch converts files concurrently, at most pool.Size() at a time.
// A failing file does not stop the others.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))

	var g errgroup.Group
	g.SetLimit(max(pool.Size(), 1))
	for i, f := range files {
		g.Go(func() error {
			results[i] = convertWithPool(ctx, pool, f, params)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// convertWithPool checks out a converter for the duration of one file.
func convertWithPool(ctx context.Context, pool Pool, f FileToConvert, params *conversionParams) ConversionResult {
	if err := ctx.Err(); err != nil {
		return ConversionResult{InputPath: f.InputPath, Err: err}
	}

	conv, err := pool.Acquire(ctx)
	if err != nil {
		return ConversionResult{InputPath: f.InputPath, Err: err}
	}
	defer pool.Release(conv)

	return convertFile(ctx, conv, f, params)
}

// convertFile converts a single file and writes one image per section.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	logger := loggerFromContext(ctx).With("file", f.InputPath)
	result := ConversionResult{InputPath: f.InputPath}

	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReadMarkdown, err))
	}

	convResult, err := conv.Convert(ctx, md2img.Input{
		Markdown:          string(content),
		ConversionOptions: params.opts,
		SourceDir:         filepath.Dir(f.InputPath),
		Progress: func(p md2img.Progress) {
			logger.Info(p.String())
		},
	})
	if err != nil {
		return fail(err)
	}

	layout := fileutil.OutputLayout{
		Source:          f.InputPath,
		Dir:             f.OutputDir,
		Format:          string(params.opts.Format),
		Split:           len(convResult.Images) > 1,
		SplitDirPattern: params.splitDir,
	}
	if err := layout.Prepare(); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteImage, err))
	}

	for _, img := range convResult.Images {
		path := layout.Path(img.Index)
		// #nosec G306 -- images are meant to be readable
		if err := os.WriteFile(path, img.Data, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrWriteImage, err))
		}
		result.Outputs = append(result.Outputs, path)
	}

	result.Duration = time.Since(start)
	logger.Debug("converted", "images", len(result.Outputs), "took", result.Duration.Round(time.Millisecond))
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// reportResults prints one line per file and returns an error when any file
// failed. The returned error wraps the first failure so the exit code
// reflects its cause.
func reportResults(ctx context.Context, results []ConversionResult, quiet bool, env *Environment) error {
	logger := loggerFromContext(ctx)
	summary := countResults(results)

	var firstErr error
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.InputPath, r.Err)
			}
			if len(results) > 1 {
				logger.Error("conversion failed", "file", r.InputPath, "err", r.Err)
			}
			continue
		}

		if quiet {
			continue
		}
		logger.Debug("done", "file", r.InputPath, "took", r.Duration.Round(time.Millisecond))
		if len(r.Outputs) == 1 {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.Outputs[0])
		} else {
			fmt.Fprintf(env.Stdout, "Created %d images in %s\n", len(r.Outputs), filepath.Dir(r.Outputs[0]))
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	if firstErr == nil {
		return nil
	}
	if len(results) == 1 {
		return firstErr
	}
	return fmt.Errorf("%d of %d conversion(s) failed, first: %w", summary.Failed, len(results), firstErr)
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, splitter string) string {
	switch {
	case errors.Is(err, md2img.ErrResourceAcquisition):
		return hints.ForBrowserConnect()
	case errors.Is(err, md2img.ErrRenderTargetNotFound):
		return hints.ForRenderTarget()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, md2img.ErrEmptyInput):
		return hints.ForEmptyInput(splitter)
	case errors.Is(err, md2img.ErrStyleNotFound):
		return hints.ForStyleNotFound(md2img.StyleNames())
	case errors.Is(err, ErrWriteImage):
		return hints.ForOutputDirectory()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	}
	return ""
}
