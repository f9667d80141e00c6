package main

import (
	"io"
	"os"

	md2img "github.com/alnah/go-md2img"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer

	// NewPool builds the converter pool used by conversion commands.
	NewPool func(size int, opts ...md2img.Option) Pool
}

// DefaultEnv returns the production environment backed by headless Chrome.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		NewPool: newConverterPool,
	}
}
