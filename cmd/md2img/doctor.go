package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/hints"
)

// Doctor status values.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
	CPUs         int  `json:"cpus"`
}

// lookChrome finds a Chrome binary when ROD_BROWSER_BIN is unset.
// Replaced in tests.
var lookChrome = launcher.LookPath

// chromeVersion runs "<bin> --version". Replaced in tests.
var chromeVersion = func(bin string) (string, error) {
	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- user-selected browser binary
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Warnings still exit 0; only errors fail.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor()

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitBrowser
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor() *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
		System: systemInfo{CPUs: runtime.NumCPU()},
	}

	checkChrome(result)
	checkEnvironment(result)
	checkSystem(result)

	switch {
	case len(result.Errors) > 0:
		result.Status = statusErrors
	case len(result.Warnings) > 0:
		result.Status = statusWarnings
	}

	return result
}

// checkChrome detects the Chrome/Chromium installation both backends use.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = lookChrome()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if version, err := chromeVersion(chromePath); err == nil {
		result.Chrome.Version = version
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container = hints.IsInContainer()
	result.Env.CI = hints.InCI()

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1 or pass --no-sandbox")
	}
}

// checkSystem verifies the temp directory is writable; every section is
// rendered from a temporary HTML file.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "md2img-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// doctorLine is one row of the text report.
type doctorLine struct {
	level string // OK, WARN or ERROR
	text  string
}

// doctorSections groups the report rows under their headers, in print order.
func doctorSections(r *doctorResult) []struct {
	title string
	lines []doctorLine
} {
	chrome := []doctorLine{{"ERROR", "Not found"}}
	if r.Chrome.Found {
		sandbox := "Sandbox: enabled"
		if !r.Chrome.Sandbox {
			sandbox = "Sandbox: disabled (ROD_NO_SANDBOX=1 or --no-sandbox)"
		}
		chrome = []doctorLine{{"OK", "Found at " + r.Chrome.Path}}
		if r.Chrome.Version != "" {
			chrome = append(chrome, doctorLine{"OK", "Version: " + r.Chrome.Version})
		}
		chrome = append(chrome,
			doctorLine{"OK", sandbox},
			doctorLine{"OK", "Backends: rod, chromedp"},
		)
	}

	env := []doctorLine{{"OK", fmt.Sprintf("Platform: %s/%s", r.Env.OS, r.Env.Arch)}}
	if r.Env.Container {
		env = append(env, doctorLine{"OK", "Container: detected"})
	}
	if r.Env.CI {
		env = append(env, doctorLine{"OK", "CI: detected"})
	}

	temp := doctorLine{"OK", "Temp directory: writable"}
	if !r.System.TempWritable {
		temp = doctorLine{"ERROR", "Temp directory: not writable"}
	}
	system := []doctorLine{temp, {"OK", fmt.Sprintf("CPUs: %d (default workers: %d)", r.System.CPUs, md2img.ResolvePoolSize(0))}}

	var problems []doctorLine
	for _, w := range r.Warnings {
		problems = append(problems, doctorLine{"WARN", w})
	}
	for _, e := range r.Errors {
		problems = append(problems, doctorLine{"ERROR", e})
	}

	return []struct {
		title string
		lines []doctorLine
	}{
		{"Chrome/Chromium", chrome},
		{"Environment", env},
		{"System", system},
		{"Problems", problems},
	}
}

// printDoctorResult writes the human-readable report.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintf(w, "md2img doctor\n\n")

	for _, section := range doctorSections(r) {
		if len(section.lines) == 0 {
			continue
		}
		fmt.Fprintln(w, section.title)
		for _, l := range section.lines {
			fmt.Fprintf(w, "  [%s] %s\n", l.level, l.text)
		}
		fmt.Fprintln(w)
	}

	status := map[string]string{
		statusReady:    "READY",
		statusWarnings: "READY (with warnings)",
		statusErrors:   "NOT READY",
	}[r.Status]
	fmt.Fprintf(w, "Status: %s\n", status)
}
