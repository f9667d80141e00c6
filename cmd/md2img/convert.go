package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/config"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput = errors.New("no input specified")
	ErrUsage   = errors.New("invalid usage")
)

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	opts     md2img.ConversionOptions
	splitDir string
}

// runConvert orchestrates the conversion process for one of the
// conversion commands (convert, png, jpeg).
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	logger := loggerFromContext(ctx)

	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, err := resolveConfig(ctx, flags)
	if err != nil {
		return err
	}

	// Resolve input path
	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}

	// Discover files to convert
	files, err := discoverFiles(inputPath, cfg.Output.DefaultDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	// Fail fast on bad styles or backends, before any browser starts.
	opts := converterOptions(cfg)
	if err := checkConverterOptions(opts); err != nil {
		return err
	}

	format, err := md2img.ParseFormat(cfg.Image.Format)
	if err != nil {
		return err
	}
	params := &conversionParams{
		opts: md2img.ConversionOptions{
			Format:     format,
			Resolution: md2img.ParseResolution(cfg.Image.Resolution),
			Splitter:   cfg.Image.Splitter,
		},
		splitDir: cfg.Output.SplitDir,
	}

	workers := flags.workers
	if workers == 0 {
		workers = loadEnvConfig().Workers
	}
	poolSize := min(md2img.ResolvePoolSize(workers), len(files))
	logger.Debug("starting conversion",
		"files", len(files),
		"workers", poolSize,
		"gomaxprocs", runtime.GOMAXPROCS(0),
		"format", params.opts.Format,
		"resolution", params.opts.Resolution,
	)

	pool := env.NewPool(poolSize, opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing browsers", "err", err)
		}
	}()

	results := convertBatch(ctx, pool, files, params)
	return reportResults(ctx, results, flags.common.quiet, env)
}

// resolveConfig builds the effective configuration.
// Precedence: CLI flags > environment variables > config file > defaults.
func resolveConfig(ctx context.Context, flags *convertFlags) (*config.Config, error) {
	envCfg := loadEnvConfig()
	warnUnknownEnvVars(loggerFromContext(ctx))

	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if configName != "" {
		var err error
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	// Output
	if flags.output != "" {
		cfg.Output.DefaultDir = flags.output
	}
	if flags.image.splitDir != "" {
		cfg.Output.SplitDir = flags.image.splitDir
	}

	// Image
	if flags.image.format != "" {
		cfg.Image.Format = flags.image.format
	}
	if flags.image.resolution != "" {
		cfg.Image.Resolution = flags.image.resolution
	}
	if flags.image.splitter != "" {
		cfg.Image.Splitter = flags.image.splitter
	}

	// Styling
	if flags.assets.style != "" {
		cfg.CSS.Style = flags.assets.style
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}

	// Browser
	if flags.browser.backend != "" {
		cfg.Browser.Backend = flags.browser.backend
	}
	if flags.browser.bin != "" {
		cfg.Browser.Bin = flags.browser.bin
	}
	if flags.browser.noSandbox {
		cfg.Browser.NoSandbox = true
	}
	if flags.browser.timeout != "" {
		cfg.Browser.Timeout = flags.browser.timeout
	}
	if flags.browser.selectorTimeout != "" {
		cfg.Browser.SelectorTimeout = flags.browser.selectorTimeout
	}
	if flags.browser.concurrency != 0 {
		cfg.Browser.Concurrency = flags.browser.concurrency
	}
}

// resolveInputPath picks the positional argument, or input.defaultDir.
func resolveInputPath(positionalArgs []string, cfg *config.Config) (string, error) {
	switch {
	case len(positionalArgs) > 1:
		return "", fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(positionalArgs))
	case len(positionalArgs) == 1:
		return positionalArgs[0], nil
	case cfg.Input.DefaultDir != "":
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// converterOptions maps the configuration to library options.
// Zero values keep the library defaults.
func converterOptions(cfg *config.Config) []md2img.Option {
	opts := []md2img.Option{
		md2img.WithStyle(cfg.CSS.Style),
		md2img.WithAssetPath(cfg.Assets.BasePath),
		md2img.WithBackend(cfg.Browser.Backend),
		md2img.WithBrowserBin(cfg.Browser.Bin),
		md2img.WithNoSandbox(cfg.Browser.NoSandbox),
	}
	if d := cfg.Browser.TimeoutDuration(); d > 0 {
		opts = append(opts, md2img.WithTimeout(d))
	}
	if d := cfg.Browser.SelectorTimeoutDuration(); d > 0 {
		opts = append(opts, md2img.WithSelectorTimeout(d))
	}
	if n := cfg.Browser.Concurrency; n > 0 {
		opts = append(opts, md2img.WithConcurrency(n))
	}
	return opts
}

// checkConverterOptions builds and discards a converter. Construction
// resolves styles and the backend but does not start a browser.
func checkConverterOptions(opts []md2img.Option) error {
	conv, err := md2img.NewConverter(opts...)
	if err != nil {
		return err
	}
	return conv.Close()
}
