package md2img

// Notes:
// - Tests Converter.Convert against fakeLauncher/fakeBrowser: no Chrome needed
// - The fake returns the rendered HTML as image data, so tests can check which
//   section ended up at which index
// - Browser lifecycle tests count launches and closes to verify reuse and
//   the discard-on-capture-failure rule
// - A panicking section must surface as a SectionError and leave the
//   Converter usable for the next call
// - Real rendering and pixel sizes are covered by integration tests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2img/internal/assets"
	"github.com/alnah/go-md2img/internal/pipeline"
)

// ---------------------------------------------------------------------------
// TestConverter_Convert - Sections and Ordering
// ---------------------------------------------------------------------------

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		markdown  string
		splitter  string
		wantTexts []string
	}{
		{
			name:      "no splitter renders one image",
			markdown:  "# Title\n\n---\n\nBody",
			splitter:  "",
			wantTexts: []string{"Title"},
		},
		{
			name:      "splitter yields one image per section",
			markdown:  "# A\n---\n# B\n---\n# C",
			splitter:  "---",
			wantTexts: []string{">A<", ">B<", ">C<"},
		},
		{
			name:      "delimiter absent yields one image",
			markdown:  "only text",
			splitter:  "<!-- split -->",
			wantTexts: []string{"only text"},
		},
		{
			name:      "empty sections are skipped",
			markdown:  "A\n---\n\n---\nB",
			splitter:  "---",
			wantTexts: []string{"<p>A</p>", "<p>B</p>"},
		},
		{
			name:      "CRLF delimiters match",
			markdown:  "A\r\n---\r\nB",
			splitter:  "---",
			wantTexts: []string{"<p>A</p>", "<p>B</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newTestConverter(t, &fakeLauncher{})

			result, err := conv.Convert(context.Background(), Input{
				Markdown:          tt.markdown,
				ConversionOptions: ConversionOptions{Splitter: tt.splitter},
			})
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if len(result.Images) != len(tt.wantTexts) {
				t.Fatalf("got %d images, want %d", len(result.Images), len(tt.wantTexts))
			}
			for i, img := range result.Images {
				if img.Index != i {
					t.Errorf("Images[%d].Index = %d, want %d", i, img.Index, i)
				}
				if img.Format != FormatPNG {
					t.Errorf("Images[%d].Format = %q, want %q", i, img.Format, FormatPNG)
				}
				if !strings.Contains(string(img.Data), tt.wantTexts[i]) {
					t.Errorf("Images[%d] should contain %q", i, tt.wantTexts[i])
				}
			}
		})
	}
}

func TestConverter_Convert_DocumentShell(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, &fakeLauncher{}, WithStyle("body{color:red}"))

	result, err := conv.Convert(context.Background(), Input{
		Markdown: "Hello ==world==",
		CSS:      ".extra{color:blue}",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	html := string(result.Images[0].Data)
	for _, want := range []string{
		`<div class="markdown-body">`,
		"body{color:red}",
		".extra{color:blue}",
		"<mark>world</mark>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document should contain %q", want)
		}
	}
	if strings.Index(html, "body{color:red}") > strings.Index(html, ".extra{color:blue}") {
		t.Error("input CSS should come after the converter style")
	}
}

func TestConverter_Convert_SourceDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	conv := newTestConverter(t, &fakeLauncher{})

	result, err := conv.Convert(context.Background(), Input{
		Markdown:  "![logo](logo.png)",
		SourceDir: dir,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if !strings.Contains(string(result.Images[0].Data), "file://") {
		t.Error("relative image should be rewritten to a file:// URL")
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_CaptureOptions - Format and Resolution
// ---------------------------------------------------------------------------

func TestConverter_Convert_CaptureOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       ConversionOptions
		wantFormat Format
		wantScale  float64
	}{
		{
			name:       "defaults are png at hd",
			opts:       ConversionOptions{},
			wantFormat: FormatPNG,
			wantScale:  2,
		},
		{
			name:       "jpeg standard",
			opts:       ConversionOptions{Format: FormatJPEG, Resolution: ResolutionStandard},
			wantFormat: FormatJPEG,
			wantScale:  1,
		},
		{
			name:       "jpg alias",
			opts:       ConversionOptions{Format: "jpg"},
			wantFormat: FormatJPEG,
			wantScale:  2,
		},
		{
			name:       "unknown resolution is hd",
			opts:       ConversionOptions{Resolution: "4k"},
			wantFormat: FormatPNG,
			wantScale:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			launcher := &fakeLauncher{}
			conv := newTestConverter(t, launcher, WithSelectorTimeout(3*time.Second))

			result, err := conv.Convert(context.Background(), Input{
				Markdown:          "text",
				ConversionOptions: tt.opts,
			})
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}

			want := captureOptions{
				format:          tt.wantFormat,
				scale:           tt.wantScale,
				selector:        pipeline.ContainerSelector,
				selectorTimeout: 3 * time.Second,
			}
			got := launcher.last().opts[0]
			if diff := cmp.Diff(want, got, cmp.AllowUnexported(captureOptions{})); diff != "" {
				t.Errorf("capture options mismatch (-want +got):\n%s", diff)
			}
			if result.Images[0].Format != tt.wantFormat {
				t.Errorf("Images[0].Format = %q, want %q", result.Images[0].Format, tt.wantFormat)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_Validation - Errors Before Rendering
// ---------------------------------------------------------------------------

func TestConverter_Convert_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{
			name:    "empty markdown",
			input:   Input{Markdown: ""},
			wantErr: ErrEmptyInput,
		},
		{
			name:    "whitespace only",
			input:   Input{Markdown: " \n\t\r\n "},
			wantErr: ErrEmptyInput,
		},
		{
			name: "only delimiters",
			input: Input{
				Markdown:          "\n---\n\n---\n",
				ConversionOptions: ConversionOptions{Splitter: "---"},
			},
			wantErr: ErrEmptyInput,
		},
		{
			name: "invalid format",
			input: Input{
				Markdown:          "text",
				ConversionOptions: ConversionOptions{Format: "gif"},
			},
			wantErr: ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			launcher := &fakeLauncher{}
			conv := newTestConverter(t, launcher)

			result, err := conv.Convert(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Error("result should be nil on error")
			}
			if launcher.launches() != 0 {
				t.Error("browser should not be launched for invalid input")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_Progress - Progress Reporting
// ---------------------------------------------------------------------------

func TestConverter_Convert_Progress(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, &fakeLauncher{})

	var got []Progress
	_, err := conv.Convert(context.Background(), Input{
		Markdown:          "A\n---\nB\n---\nC",
		ConversionOptions: ConversionOptions{Splitter: "---"},
		Progress:          func(p Progress) { got = append(got, p) },
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := []Progress{{1, 3}, {2, 3}, {3, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	if got[0].String() != "Processing section 1/3" {
		t.Errorf("Progress.String() = %q", got[0].String())
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_SectionError - Failure Handling
// ---------------------------------------------------------------------------

func TestConverter_Convert_SectionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		captureErr    error
		wantErr       error
		wantDiscarded bool
	}{
		{
			name:          "capture failure discards the browser",
			captureErr:    ErrCapture,
			wantErr:       ErrCapture,
			wantDiscarded: true,
		},
		{
			name:          "missing container keeps the browser",
			captureErr:    ErrRenderTargetNotFound,
			wantErr:       ErrRenderTargetNotFound,
			wantDiscarded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			launcher := &fakeLauncher{
				capture: func(ctx context.Context, html string) ([]byte, error) {
					if strings.Contains(html, "fail") {
						return nil, tt.captureErr
					}
					return []byte("ok"), nil
				},
			}
			conv := newTestConverter(t, launcher)

			var calls int
			result, err := conv.Convert(context.Background(), Input{
				Markdown:          "first\n---\nfail here\n---\nthird",
				ConversionOptions: ConversionOptions{Splitter: "---"},
				Progress:          func(Progress) { calls++ },
			})
			if result != nil {
				t.Error("no partial result should be returned")
			}

			var sectionErr *SectionError
			if !errors.As(err, &sectionErr) {
				t.Fatalf("error should be *SectionError, got %T: %v", err, err)
			}
			if sectionErr.Index != 1 {
				t.Errorf("SectionError.Index = %d, want 1", sectionErr.Index)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error should wrap %v, got %v", tt.wantErr, err)
			}
			if calls != 1 {
				t.Errorf("progress calls = %d, want 1 (sections after the failure never run)", calls)
			}

			first := launcher.last()
			if discarded := first.closeCount() == 1; discarded != tt.wantDiscarded {
				t.Errorf("browser discarded = %v, want %v", discarded, tt.wantDiscarded)
			}

			// Next run: relaunch only if the browser was discarded.
			if _, err := conv.Convert(context.Background(), Input{Markdown: "ok"}); err != nil {
				t.Fatalf("second Convert() error = %v", err)
			}
			wantLaunches := 1
			if tt.wantDiscarded {
				wantLaunches = 2
			}
			if launcher.launches() != wantLaunches {
				t.Errorf("launches = %d, want %d", launcher.launches(), wantLaunches)
			}
		})
	}
}

func TestConverter_Convert_LaunchError(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{err: ErrResourceAcquisition}
	conv := newTestConverter(t, launcher)

	_, err := conv.Convert(context.Background(), Input{Markdown: "text"})
	if !errors.Is(err, ErrResourceAcquisition) {
		t.Fatalf("Convert() error = %v, want ErrResourceAcquisition", err)
	}
}

func TestConverter_Convert_ContextCanceled(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{delay: time.Second}
	conv := newTestConverter(t, launcher)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := conv.Convert(ctx, Input{
		Markdown:          "A\n---\nB",
		ConversionOptions: ConversionOptions{Splitter: "---"},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Convert() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Convert() took %v after cancellation", elapsed)
	}
}

func TestConverter_Convert_SectionTimeout(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{delay: time.Second}
	conv := newTestConverter(t, launcher, WithTimeout(20*time.Millisecond))

	_, err := conv.Convert(context.Background(), Input{Markdown: "text"})

	var sectionErr *SectionError
	if !errors.As(err, &sectionErr) || sectionErr.Index != 0 {
		t.Fatalf("Convert() error = %v, want *SectionError for section 0", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap context.DeadlineExceeded, got %v", err)
	}
}

func TestConverter_Convert_SectionPanic(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{
		capture: func(ctx context.Context, html string) ([]byte, error) {
			panic("capture blew up")
		},
	}
	conv := newTestConverter(t, launcher)

	for run := range 2 {
		done := make(chan error, 1)
		go func() {
			_, err := conv.Convert(context.Background(), Input{Markdown: "text"})
			done <- err
		}()

		var err error
		select {
		case err = <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d: Convert() did not return after a section panic", run)
		}

		var sectionErr *SectionError
		if !errors.As(err, &sectionErr) || sectionErr.Index != 0 {
			t.Fatalf("run %d: Convert() error = %v, want *SectionError for section 0", run, err)
		}
		if !strings.Contains(err.Error(), "internal error: capture blew up") {
			t.Errorf("run %d: error = %q, want the panic value", run, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_Resources - Temp Files and Browser Reuse
// ---------------------------------------------------------------------------

func TestConverter_Convert_RemovesTempFiles(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{
		capture: func(ctx context.Context, html string) ([]byte, error) {
			if strings.Contains(html, "fail") {
				return nil, ErrRenderTargetNotFound
			}
			return []byte("ok"), nil
		},
	}
	conv := newTestConverter(t, launcher)

	_, _ = conv.Convert(context.Background(), Input{
		Markdown:          "A\n---\nfail",
		ConversionOptions: ConversionOptions{Splitter: "---"},
	})

	paths := launcher.last().paths
	if len(paths) != 2 {
		t.Fatalf("captured %d files, want 2", len(paths))
	}
	for _, p := range paths {
		if filepath.Ext(p) != ".html" {
			t.Errorf("temp file %q should have .html extension", p)
		}
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("temp file %q should be removed after capture", p)
		}
	}
}

func TestConverter_Convert_ReusesBrowser(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	conv := newTestConverter(t, launcher)

	for range 3 {
		if _, err := conv.Convert(context.Background(), Input{Markdown: "text"}); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
	}

	if launcher.launches() != 1 {
		t.Errorf("launches = %d, want 1", launcher.launches())
	}
}

func TestConverter_Close(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	conv, err := NewConverter(withLauncher(launcher))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}

	if err := conv.Close(); err != nil {
		t.Fatalf("Close() before use error = %v", err)
	}
	if launcher.launches() != 0 {
		t.Error("Close() should not launch a browser")
	}

	_, err = conv.Convert(context.Background(), Input{Markdown: "text"})
	if !errors.Is(err, ErrConverterClosed) {
		t.Errorf("Convert() after Close error = %v, want ErrConverterClosed", err)
	}
}

func TestConverter_Close_Idempotent(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	conv, err := NewConverter(withLauncher(launcher))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	if _, err := conv.Convert(context.Background(), Input{Markdown: "text"}); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	for range 2 {
		if err := conv.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
	if got := launcher.last().closeCount(); got != 1 {
		t.Errorf("browser closed %d times, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_Concurrency - Parallel Sections
// ---------------------------------------------------------------------------

func TestConverter_Convert_Concurrency(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{delay: 30 * time.Millisecond}
	conv := newTestConverter(t, launcher, WithConcurrency(4))

	parts := []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7"}

	var (
		mu   sync.Mutex
		seen []int
	)
	result, err := conv.Convert(context.Background(), Input{
		Markdown:          strings.Join(parts, "\n---\n"),
		ConversionOptions: ConversionOptions{Splitter: "---"},
		Progress: func(p Progress) {
			mu.Lock()
			seen = append(seen, p.Current)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	for i, img := range result.Images {
		if img.Index != i || !strings.Contains(string(img.Data), parts[i]) {
			t.Errorf("Images[%d] is out of order", i)
		}
	}

	b := launcher.last()
	if b.maxInFlight < 2 || b.maxInFlight > 4 {
		t.Errorf("max concurrent captures = %d, want 2..4", b.maxInFlight)
	}

	for i, current := range seen {
		if current != i+1 {
			t.Errorf("progress[%d] = %d, want %d", i, current, i+1)
		}
	}
}

func TestConverter_Convert_SequentialByDefault(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{delay: 5 * time.Millisecond}
	conv := newTestConverter(t, launcher)

	_, err := conv.Convert(context.Background(), Input{
		Markdown:          "a\n---\nb\n---\nc",
		ConversionOptions: ConversionOptions{Splitter: "---"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := launcher.last().maxInFlight; got != 1 {
		t.Errorf("max concurrent captures = %d, want 1", got)
	}
}

func TestConverter_Convert_ConcurrentCalls(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{delay: 5 * time.Millisecond}
	conv := newTestConverter(t, launcher)

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			if _, err := conv.Convert(context.Background(), Input{Markdown: "text"}); err != nil {
				t.Errorf("Convert() error = %v", err)
			}
		})
	}
	wg.Wait()

	if launcher.launches() != 1 {
		t.Errorf("launches = %d, want 1", launcher.launches())
	}
	if got := launcher.last().maxInFlight; got != 1 {
		t.Errorf("max concurrent captures = %d, want 1 (calls are serialized)", got)
	}
}

// ---------------------------------------------------------------------------
// TestNewConverter - Construction and Style Resolution
// ---------------------------------------------------------------------------

func TestNewConverter_Style(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cssFile := filepath.Join(dir, "custom.css")
	if err := os.WriteFile(cssFile, []byte(".file{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	assetDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(assetDir, "styles"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(assetDir, "styles", "brand.css"), []byte(".brand{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		opts    []Option
		want    string
		wantErr error
	}{
		{
			name: "default style",
			opts: nil,
			want: assets.DefaultStyleSheet(),
		},
		{
			name: "inline CSS",
			opts: []Option{WithStyle("body { margin: 0 } /* a/b */")},
			want: "body { margin: 0 } /* a/b */",
		},
		{
			name: "CSS file",
			opts: []Option{WithStyle(cssFile)},
			want: ".file{}",
		},
		{
			name: "embedded name",
			opts: []Option{WithStyle("dark")},
			want: mustLoadStyle(t, "dark"),
		},
		{
			name: "custom name from asset path",
			opts: []Option{WithAssetPath(assetDir), WithStyle("brand")},
			want: ".brand{}",
		},
		{
			name:    "missing CSS file",
			opts:    []Option{WithStyle(filepath.Join(dir, "missing.css"))},
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "unknown name",
			opts:    []Option{WithStyle("nope")},
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "invalid asset path",
			opts:    []Option{WithAssetPath(filepath.Join(dir, "missing"))},
			wantErr: ErrInvalidAssetPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{withLauncher(&fakeLauncher{})}, tt.opts...)
			conv, err := NewConverter(opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewConverter() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConverter() error = %v", err)
			}
			defer conv.Close()

			if conv.CSS() != tt.want {
				t.Errorf("CSS() = %.60q..., want %.60q...", conv.CSS(), tt.want)
			}
		})
	}
}

func mustLoadStyle(t *testing.T, name string) string {
	t.Helper()
	css, err := assets.LoadStyle(name)
	if err != nil {
		t.Fatalf("assets.LoadStyle(%q) error = %v", name, err)
	}
	return css
}

func TestNewConverter_InvalidBackend(t *testing.T) {
	t.Parallel()

	_, err := NewConverter(WithBackend("firefox"))
	if !errors.Is(err, ErrInvalidBackend) {
		t.Fatalf("NewConverter() error = %v, want ErrInvalidBackend", err)
	}
}

func TestNewConverter_HTMLConverterFailureFallsBack(t *testing.T) {
	t.Parallel()

	mock := &mockHTMLConverter{err: errors.New("boom")}
	conv := newTestConverter(t, &fakeLauncher{}, withHTMLConverter(mock))

	result, err := conv.Convert(context.Background(), Input{Markdown: "a < b"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(string(result.Images[0].Data), "<pre>a &lt; b</pre>") {
		t.Error("failed conversion should fall back to escaped <pre>")
	}
}
