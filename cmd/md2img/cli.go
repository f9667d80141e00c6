package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2img/internal/yamlutil"
)

// Command names.
const (
	cmdConvert = "convert"
	cmdPNG     = "png"
	cmdJPEG    = "jpeg"
	cmdConfig  = "config"
	cmdDoctor  = "doctor"
	cmdVersion = "version"
	cmdHelp    = "help"
)

// run dispatches args (without the program name) to a command and returns
// the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case cmdConvert, cmdPNG, cmdJPEG:
		return runConvertCmd(ctx, cmd, rest, env)
	case cmdConfig:
		return runConfigCmd(ctx, rest, env)
	case cmdDoctor:
		return runDoctorCmd(rest, env)
	case cmdVersion, "--version":
		fmt.Fprintf(env.Stdout, "md2img %s\n", Version)
		return ExitSuccess
	case cmdHelp, "--help", "-h":
		return runHelp(rest, env)
	}

	fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", cmd)
	printUsage(env.Stderr)
	return ExitUsage
}

// runConvertCmd parses flags, sets up logging and converts. Errors are
// printed once, with a hint when one applies.
func runConvertCmd(ctx context.Context, name string, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(name, args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	ctx = withLogger(ctx, logger)

	if err := runConvert(ctx, positional, flags, env); err != nil {
		logger.Error(err.Error() + hintFor(err, flags.image.splitter))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConfigCmd prints the effective configuration as YAML.
func runConfigCmd(ctx context.Context, args []string, env *Environment) int {
	flags, _, err := parseConvertFlags(cmdConvert, args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}
	ctx = withLogger(ctx, newLogger(env.Stderr, flags.common.quiet, flags.common.verbose))

	cfg, err := resolveConfig(ctx, flags)
	if err != nil {
		fmt.Fprintln(env.Stderr, err.Error()+hintFor(err, ""))
		return exitCodeFor(err)
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitGeneral
	}
	_, _ = env.Stdout.Write(out)
	return ExitSuccess
}
