package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2img/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxSplitterLength = 100
	MaxPatternLength  = 255
	MaxStyleLength    = 64 * 1024 // inline CSS is allowed
	MaxConcurrency    = 16
)

// Config holds all CLI configuration.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Image   ImageConfig   `yaml:"image"`
	CSS     CSSConfig     `yaml:"css"`
	Assets  AssetsConfig  `yaml:"assets"`
	Browser BrowserConfig `yaml:"browser"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = must specify
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = next to the source
	SplitDir   string `yaml:"splitDir"`   // pattern with {name} and {format}
}

// ImageConfig defines snapshot options.
type ImageConfig struct {
	Format     string `yaml:"format"`     // "png" or "jpeg"
	Resolution string `yaml:"resolution"` // "standard" or "hd"
	Splitter   string `yaml:"splitter"`   // delimiter line; empty = one image per file
}

// CSSConfig defines styling options.
type CSSConfig struct {
	Style string `yaml:"style"` // style name, CSS file path or inline CSS
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// BrowserConfig defines headless browser options. Durations use Go syntax
// ("30s", "1m").
type BrowserConfig struct {
	Backend         string `yaml:"backend"` // "rod" or "chromedp"
	Bin             string `yaml:"bin"`
	NoSandbox       bool   `yaml:"noSandbox"`
	Timeout         string `yaml:"timeout"`
	SelectorTimeout string `yaml:"selectorTimeout"`
	Concurrency     int    `yaml:"concurrency"`
}

// TimeoutDuration returns the parsed browser timeout, zero if unset.
func (b BrowserConfig) TimeoutDuration() time.Duration {
	d, _ := parseDuration(b.Timeout)
	return d
}

// SelectorTimeoutDuration returns the parsed selector timeout, zero if unset.
func (b BrowserConfig) SelectorTimeoutDuration() time.Duration {
	d, _ := parseDuration(b.SelectorTimeout)
	return d
}

// Validate checks values and field lengths. Called by LoadConfig, and
// available for callers that build a Config by hand.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"output.splitDir", c.Output.SplitDir, MaxPatternLength},
		{"image.splitter", c.Image.Splitter, MaxSplitterLength},
		{"css.style", c.CSS.Style, MaxStyleLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"browser.bin", c.Browser.Bin, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Image.Format) {
	case "", "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("%w: image.format %q (must be png or jpeg)", ErrInvalidValue, c.Image.Format)
	}

	switch strings.ToLower(c.Image.Resolution) {
	case "", "standard", "hd":
	default:
		return fmt.Errorf("%w: image.resolution %q (must be standard or hd)", ErrInvalidValue, c.Image.Resolution)
	}

	if strings.ContainsAny(c.Image.Splitter, "\r\n") {
		return fmt.Errorf("%w: image.splitter must be a single line", ErrInvalidValue)
	}

	switch strings.ToLower(c.Browser.Backend) {
	case "", "rod", "chromedp":
	default:
		return fmt.Errorf("%w: browser.backend %q (must be rod or chromedp)", ErrInvalidValue, c.Browser.Backend)
	}

	if c.Browser.Concurrency < 0 || c.Browser.Concurrency > MaxConcurrency {
		return fmt.Errorf("%w: browser.concurrency must be between 0 and %d, got %d",
			ErrInvalidValue, MaxConcurrency, c.Browser.Concurrency)
	}

	if _, err := parseDuration(c.Browser.Timeout); err != nil {
		return fmt.Errorf("%w: browser.timeout: %v", ErrInvalidValue, err)
	}
	if _, err := parseDuration(c.Browser.SelectorTimeout); err != nil {
		return fmt.Errorf("%w: browser.selectorTimeout: %v", ErrInvalidValue, err)
	}

	return nil
}

// parseDuration accepts an empty string as zero and rejects negative values.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration where every field defers to the
// library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// A value with a path separator is a file path. Anything else is a name
// searched in the current directory, then in the user config directory.
// A missing file is an error: there is no silent fallback.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !strings.ContainsAny(nameOrPath, `/\`) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParse, yamlutil.Describe(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath searches name.yaml then name.yml, first in the current
// directory, then in <user config dir>/go-md2img/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	dirs := []string{""}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, "go-md2img"))
	}

	tried := make([]string, 0, len(extensions)*len(dirs))
	for _, dir := range dirs {
		for _, ext := range extensions {
			candidate := filepath.Join(dir, name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
			tried = append(tried, candidate)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
