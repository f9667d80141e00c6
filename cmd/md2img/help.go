package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown files to images")
	fmt.Fprintln(w, "  png        Convert markdown files to PNG")
	fmt.Fprintln(w, "  jpeg       Convert markdown files to JPEG")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check the Chrome setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2img help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for a conversion command.
func printConvertUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: md2img %s <input> [flags]\n", name)
	fmt.Fprintln(w)
	switch name {
	case cmdPNG:
		fmt.Fprintln(w, "Convert markdown files to PNG images.")
	case cmdJPEG:
		fmt.Fprintln(w, "Convert markdown files to JPEG images.")
	default:
		fmt.Fprintln(w, "Convert markdown files to images.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>             Output directory (default: next to the input)")
	fmt.Fprintln(w, "  -c, --config <name>            Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>              Files converted in parallel (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Image:")
	if name == cmdConvert {
		fmt.Fprintln(w, "  -f, --format <s>               Format: png, jpeg (default: png)")
	}
	fmt.Fprintln(w, "  -r, --resolution <s>           Resolution: standard, hd (default: hd)")
	fmt.Fprintln(w, "  -s, --splitter <line>          Start a new image at each line equal to this")
	fmt.Fprintln(w, "      --split-dir <pattern>      Folder for split images (default: {name}-{format})")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <s>                Style name, CSS file path or inline CSS")
	fmt.Fprintln(w, "      --asset-path <dir>         Custom asset directory (styles/<name>.css)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --backend <s>              Backend: rod, chromedp (default: rod)")
	fmt.Fprintln(w, "      --browser-bin <path>       Chrome/Chromium binary")
	fmt.Fprintln(w, "      --no-sandbox               Disable the Chrome sandbox")
	fmt.Fprintln(w, "  -t, --timeout <d>              Per-section timeout (default: 30s)")
	fmt.Fprintln(w, "      --selector-timeout <d>     Wait for the content container (default: 10s)")
	fmt.Fprintln(w, "      --concurrency <n>          Sections rendered at once per file (1-16)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                    Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                  Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Split documents are written to <output>/<split-dir>/<name>_<n>.<format>.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdConvert, cmdPNG, cmdJPEG:
		printConvertUsage(env.Stdout, args[0])
	case cmdConfig:
		fmt.Fprintln(env.Stdout, "Usage: md2img config [--config <name>] [flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the configuration after merging file, environment and flags.")
	case cmdDoctor:
		fmt.Fprintln(env.Stdout, "Usage: md2img doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that Chrome can be found and the environment is ready.")
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: md2img version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: md2img help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
