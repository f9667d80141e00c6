package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSplitDirPattern names the folder that holds the images of a split
// document. {name} is the source base name, {format} the image extension.
const DefaultSplitDirPattern = "{name}-{format}"

// OutputLayout describes where the images for one source file go.
//
// Unsplit documents produce {Dir}/{name}.{format}. Split documents produce
// {Dir}/{pattern}/{name}_{n}.{format}, with n counting from 1.
type OutputLayout struct {
	Source          string // Markdown file path
	Dir             string // output directory, defaults to the source directory
	Format          string // file extension without the dot
	Split           bool
	SplitDirPattern string // defaults to DefaultSplitDirPattern
}

// BaseName returns the source file name without its extension.
func (l OutputLayout) BaseName() string {
	base := filepath.Base(l.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImageDir returns the directory images are written to.
func (l OutputLayout) ImageDir() string {
	dir := l.Dir
	if dir == "" {
		dir = filepath.Dir(l.Source)
	}
	if !l.Split {
		return dir
	}
	return filepath.Join(dir, ExpandSplitDir(l.SplitDirPattern, l.BaseName(), l.Format))
}

// Path returns the file path for the section at index.
func (l OutputLayout) Path(index int) string {
	name := l.BaseName()
	if l.Split {
		name = fmt.Sprintf("%s_%d", name, index+1)
	}
	return filepath.Join(l.ImageDir(), name+"."+l.Format)
}

// Prepare creates the image directory if needed.
func (l OutputLayout) Prepare() error {
	if err := os.MkdirAll(l.ImageDir(), 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

// ExpandSplitDir substitutes {name} and {format} in pattern. Path separators
// produced by the substitution are replaced so the result stays one level deep.
func ExpandSplitDir(pattern, name, format string) string {
	if pattern == "" {
		pattern = DefaultSplitDirPattern
	}
	dir := strings.NewReplacer("{name}", name, "{format}", format).Replace(pattern)
	dir = strings.NewReplacer("/", "_", `\`, "_").Replace(dir)
	if dir == "." || dir == ".." || dir == "" {
		return name + "-" + format
	}
	return dir
}
