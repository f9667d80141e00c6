package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-md2img/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // MD2IMG_CONFIG: config file name or path
	Style      string // MD2IMG_STYLE: CSS style name or path
	Timeout    string // MD2IMG_TIMEOUT: per-section timeout
	InputDir   string // MD2IMG_INPUT_DIR: default input directory
	OutputDir  string // MD2IMG_OUTPUT_DIR: default output directory
	Format     string // MD2IMG_FORMAT: png, jpeg
	Resolution string // MD2IMG_RESOLUTION: standard, hd
	Splitter   string // MD2IMG_SPLITTER: delimiter line
	Backend    string // MD2IMG_BACKEND: rod, chromedp
	Workers    int    // MD2IMG_WORKERS: parallel workers
}

// knownEnvVars lists valid MD2IMG_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2IMG_CONFIG":     true,
	"MD2IMG_STYLE":      true,
	"MD2IMG_TIMEOUT":    true,
	"MD2IMG_INPUT_DIR":  true,
	"MD2IMG_OUTPUT_DIR": true,
	"MD2IMG_FORMAT":     true,
	"MD2IMG_RESOLUTION": true,
	"MD2IMG_SPLITTER":   true,
	"MD2IMG_BACKEND":    true,
	"MD2IMG_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MD2IMG_CONFIG"),
		Style:      os.Getenv("MD2IMG_STYLE"),
		Timeout:    os.Getenv("MD2IMG_TIMEOUT"),
		InputDir:   os.Getenv("MD2IMG_INPUT_DIR"),
		OutputDir:  os.Getenv("MD2IMG_OUTPUT_DIR"),
		Format:     os.Getenv("MD2IMG_FORMAT"),
		Resolution: os.Getenv("MD2IMG_RESOLUTION"),
		Splitter:   os.Getenv("MD2IMG_SPLITTER"),
		Backend:    os.Getenv("MD2IMG_BACKEND"),
	}

	// Parse int for workers
	if workers := os.Getenv("MD2IMG_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MD2IMG_* variables.
// Helps catch typos like MD2IMG_FROMAT instead of MD2IMG_FORMAT.
func warnUnknownEnvVars(logger *log.Logger) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "MD2IMG_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			logger.Warn("unknown environment variable (typo?)", "name", name)
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIfEmpty(&cfg.CSS.Style, env.Style)
	setIfEmpty(&cfg.Browser.Timeout, env.Timeout)
	setIfEmpty(&cfg.Input.DefaultDir, env.InputDir)
	setIfEmpty(&cfg.Output.DefaultDir, env.OutputDir)
	setIfEmpty(&cfg.Image.Format, env.Format)
	setIfEmpty(&cfg.Image.Resolution, env.Resolution)
	setIfEmpty(&cfg.Image.Splitter, env.Splitter)
	setIfEmpty(&cfg.Browser.Backend, env.Backend)
}

func setIfEmpty(dst *string, value string) {
	if value != "" && *dst == "" {
		*dst = value
	}
}
