package main

// Notes:
// - Test infrastructure shared by the CLI tests: a scripted converter, a
//   pool that hands it out, and an Environment writing to buffers.
// - No browser is started anywhere in this package's unit tests.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	md2img "github.com/alnah/go-md2img"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockConverter returns one image per section of the input by default.
type mockConverter struct {
	mu      sync.Mutex
	inputs  []md2img.Input
	convert func(md2img.Input) (*md2img.ConvertResult, error)
}

func (m *mockConverter) Convert(_ context.Context, input md2img.Input) (*md2img.ConvertResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	if m.convert != nil {
		return m.convert(input)
	}
	return sectionImages(input), nil
}

func (m *mockConverter) calls() []md2img.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]md2img.Input(nil), m.inputs...)
}

// sectionImages fakes a conversion: each section's trimmed text is the image data.
func sectionImages(input md2img.Input) *md2img.ConvertResult {
	result := &md2img.ConvertResult{}
	for _, s := range md2img.SplitContent(input.Markdown, input.Splitter) {
		result.Images = append(result.Images, md2img.Image{
			Index:  s.Index,
			Format: input.Format,
			Data:   []byte(strings.TrimSpace(s.Content)),
		})
	}
	return result
}

// mockPool hands out the same converter to every caller.
type mockPool struct {
	conv       CLIConverter
	size       int
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
	closed   bool
}

func (p *mockPool) Acquire(_ context.Context) (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return p.conv, nil
}

func (p *mockPool) Release(CLIConverter) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *mockPool) Size() int { return p.size }

func (p *mockPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// Test Environment
// ---------------------------------------------------------------------------

// testEnv bundles an Environment with its output buffers and the pool it builds.
type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	conv     *mockConverter
	pool     *mockPool
	poolSize int
}

func newTestEnv() *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		conv:   &mockConverter{},
	}
	te.Environment = &Environment{
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewPool: func(size int, _ ...md2img.Option) Pool {
			te.poolSize = size
			te.pool = &mockPool{conv: te.conv, size: size}
			return te.pool
		},
	}
	return te
}

// writeMarkdown writes content to dir/name and returns the path.
func writeMarkdown(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// readFile returns the content of path, failing the test if it is missing.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// clearMD2IMGEnv unsets every MD2IMG_* variable for the duration of the test.
func clearMD2IMGEnv(t *testing.T) {
	t.Helper()
	for name := range knownEnvVars {
		t.Setenv(name, "")
	}
}
