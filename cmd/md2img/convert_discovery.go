package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrNoMarkdownFiles    = errors.New("no markdown files found")
)

// FileToConvert is one Markdown file and the directory its images go to.
type FileToConvert struct {
	InputPath string
	OutputDir string // empty = next to the input
}

// discoverFiles finds all markdown files to convert. For a directory input,
// the sub-directory layout is mirrored under outputDir.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		return []FileToConvert{{InputPath: inputPath, OutputDir: outputDir}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !fileutil.IsMarkdown(path) {
			return nil
		}
		files = append(files, FileToConvert{
			InputPath: path,
			OutputDir: mirrorOutputDir(path, inputPath, outputDir),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMarkdownFiles, inputPath)
	}
	return files, nil
}

// mirrorOutputDir places the output of path under outputDir at the same
// relative location it has under baseInputDir.
func mirrorOutputDir(path, baseInputDir, outputDir string) string {
	if outputDir == "" {
		return ""
	}
	relPath, err := filepath.Rel(baseInputDir, path)
	if err != nil {
		return outputDir
	}
	return filepath.Join(outputDir, filepath.Dir(relPath))
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	if !fileutil.IsMarkdown(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2img.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2img.MaxPoolSize)
	}
	return nil
}
